/*
Package cmd provides all the commands for the serverbench binary.

The commands are separated by file, one per subcommand. There are a few global CLI flags that configure
logging, defined by the globally exposed variables. Everything else is read from the config file
($HOME/.serverbench.yaml by default) and SERVERBENCH_ prefixed environment variables, with flags taking
precedence.

Usage

	serverbench serve --addr :9090
	serverbench run Thread-Pool --port 8081 --requests 500
	serverbench run --all --requests 1000 -o json
	serverbench config
*/
package cmd
