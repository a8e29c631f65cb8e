package main

import (
	"os"

	"github.com/pablofarias19/sentency-sub002/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
