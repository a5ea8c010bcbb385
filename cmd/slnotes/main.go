package main

import (
	"os"

	"slnotes/cmd/slnotes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
