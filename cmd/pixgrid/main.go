package main

import "github.com/strrl/pixgrid/cmd/pixgrid/commands"

func main() {
	commands.Execute()
}
