package main

import "github.com/assetnote/serverbench/cmd/serverbench/cmd"

func main() {
	cmd.Execute()
}
