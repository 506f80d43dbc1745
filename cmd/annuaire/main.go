package main

import "github.com/user/annuaire-crawler/cmd/annuaire/commands"

func main() {
	commands.Execute()
}
