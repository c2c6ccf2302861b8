package main

import (
	"os"

	"github.com/solatis/ntfyrelay/cmd/ntfyrelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
