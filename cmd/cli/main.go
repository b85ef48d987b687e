// Package main is the entry point for the datamesa CLI binary.
package main

import (
	"os"

	cli "github.com/datamesa/datamesa/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
