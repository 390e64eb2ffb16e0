package main

import "tapascrap/cmd/tapascrap/commands"

func main() {
	commands.Execute()
}
