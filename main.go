package main

import (
	"os"

	"github.com/doorkeep/doorkeep/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
