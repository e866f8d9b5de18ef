package main

import (
	"os"

	"github.com/SafeMPC/mint-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
