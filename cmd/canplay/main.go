// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command canplay answers capability queries from the shell, either offline
// against the built-in tables or against a running canplayd.
package main

import "os"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}
