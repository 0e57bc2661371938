package main

import (
	"os"

	"github.com/Winner-yo/mqtt-dashboard/services/simulator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
