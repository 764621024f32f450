package main

import (
	"os"

	platelogcmder "github.com/papercomputeco/platelog/cmd/platelog"
)

func main() {
	cmd := platelogcmder.NewPlatelogCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
