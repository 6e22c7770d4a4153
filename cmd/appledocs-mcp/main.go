// Package main provides the entry point for the appledocs-mcp CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/appledocs-mcp/cmd/appledocs-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
