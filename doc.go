/*
Package serverbench compares connection handling strategies for a minimal http server under load.

There are no exports in the root package.

CLI tools part of `cmd/` include:
	- serverbench - starts servers on demand, serves the management api and runs benchmarks
*/
package serverbench
