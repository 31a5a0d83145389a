// Package main provides the entry point for the NPS dashboard watcher.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nps_watcher",
	Short: "NPS dashboard watcher",
	Long:  "Watches the NPS Looker Studio dashboard for new customer comments and relays them to Google Chat, skipping anything already posted.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
