package main

import (
	"os"

	"github.com/GoUserHub/GoUserHub/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
