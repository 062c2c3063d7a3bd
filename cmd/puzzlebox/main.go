package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/MeKo-Tech/puzzlebox/cmd/puzzlebox/cmd"
	"github.com/MeKo-Tech/puzzlebox/internal/version"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		cmd.NewRootCmd(),
		fang.WithVersion(version.String()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
