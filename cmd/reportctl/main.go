package main

import (
	"os"

	"github.com/JonMunkholm/insights/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
