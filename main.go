package main

import (
	"os"

	"github.com/shadabshaukat/searchd/cli"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
