package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var embedProjectID string

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed a project's pending pages",
	Long:  "Fetches every crawled URL that has not been embedded yet, splits the page text into chunks, embeds each chunk, and stores the vectors.",
	RunE:  runEmbed,
}

func init() {
	embedCmd.Flags().StringVarP(&embedProjectID, "project", "p", "", "Project identifier (required)")
	if err := embedCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()

	st, err := connectStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := newIngestor(cfg, st, client, log).SetEmbeddings(ctx, embedProjectID); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}
