// Package main is the entry point for the duebot CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/duebot/cmd"
	"github.com/danielolaszy/duebot/internal/logging"
)

const version = "1.0.0"

// main executes the root command and exits non-zero on any error.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logging.Debug("starting duebot", "version", version, "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
