package main

import (
	"os"

	"github.com/stevereal007-del/House-Bernard-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
