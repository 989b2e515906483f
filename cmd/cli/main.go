// Package main is the entry point for the dotasync CLI binary.
package main

import (
	"os"

	cli "dotasync/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
