package main

import (
	"os"

	"github.com/bim2twin/dtpfix/cmd/dtpfix"
)

func main() {
	if err := dtpfix.Execute(); err != nil {
		os.Exit(1)
	}
}
