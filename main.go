package main

import "github.com/neo/turingwire/cmd"

func main() {
	cmd.Execute()
}
