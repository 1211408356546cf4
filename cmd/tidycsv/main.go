package main

import "github.com/JonMunkholm/tidycsv/cmd/tidycsv/commands"

func main() {
	commands.Execute()
}
