package main

import (
	"os"

	"cryptostore/cmd/cryptostore/commands"
)

func main() {
	os.Exit(commands.Execute())
}
