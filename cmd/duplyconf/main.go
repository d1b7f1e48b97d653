package main

import (
	"os"

	"github.com/monotek/duplyconf/internal/cli/commands"
)

var Version = "dev"

func main() {
	os.Exit(commands.Execute(Version))
}
