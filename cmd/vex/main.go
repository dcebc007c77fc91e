package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootLogger().Error("command failed", "error", err.Error())
		os.Exit(2)
	}
	os.Exit(exitCode)
}
