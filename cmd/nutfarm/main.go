package main

import (
	"os"

	"github.com/okunev/nutfarm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
