package main

import (
	"os"

	"github.com/greinacker/tvbackup/cmd/tvbackup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
