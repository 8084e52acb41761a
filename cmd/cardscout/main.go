package main

import "github.com/codyseavey/cardscout/cmd/cardscout/commands"

func main() {
	commands.Execute()
}
