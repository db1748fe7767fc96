package main

import (
	"os"

	"github.com/petrijr/stepform/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
