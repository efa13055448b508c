package main

import (
	"os"

	"github.com/solatis/rulesynth/cmd/rulesynth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
