// Package main provides the entry point for the leadpulse CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leadpulse",
	Short: "Signal collection and intent scoring pipeline",
	Long:  "leadpulse collects buying signals about companies from public sources, scores their security/auth intent and exposes the results over a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
