package main

import (
	"os"

	"github.com/igorsilveira/ada/cmd/ada"
)

func main() {
	if err := ada.Execute(); err != nil {
		os.Exit(1)
	}
}
