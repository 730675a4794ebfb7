package main

import (
	"os"

	"github.com/p-blackswan/taskboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
