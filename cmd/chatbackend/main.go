// Package main provides the entry point for the chat backend: crawl a site,
// embed its pages, and answer questions grounded in them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatbackend",
	Short: "Website QA chat backend",
	Long:  "chatbackend crawls a website, embeds its pages into a vector store, and answers questions grounded in the embedded content via REST API or CLI.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
