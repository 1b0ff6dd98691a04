package main

import (
	"os"

	"github.com/conneroisu/cheatsheet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
