// Package main is the entry point for the kitci CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/kitci/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
