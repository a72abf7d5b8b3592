package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	crawlSeedURL   string
	crawlProjectID string
	crawlMaxDepth  int
	crawlDryRun    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and record its pages for a project",
	Long:  "Crawls a website from a seed URL, following relative links up to the depth limit, and stores every discovered page URL for later embedding.",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlSeedURL, "url", "u", "", "Seed URL to crawl (required)")
	crawlCmd.Flags().StringVarP(&crawlProjectID, "project", "p", "", "Project identifier (required)")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 0, "Link depth limit (overrides CRAWL_MAX_DEPTH)")
	crawlCmd.Flags().BoolVar(&crawlDryRun, "dry-run", false, "Print discovered URLs without storing them")

	if err := crawlCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}
	if err := crawlCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	maxDepth := cfg.CrawlMaxDepth
	if crawlMaxDepth > 0 {
		maxDepth = crawlMaxDepth
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()

	result, err := newCrawler(cfg, log).Crawl(ctx, crawlSeedURL, maxDepth)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	for _, u := range result.Found {
		_, _ = fmt.Fprintln(os.Stdout, u)
	}
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}

	if crawlDryRun || len(result.Found) == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "Found %d pages (%d errors), nothing stored\n",
			len(result.Found), len(result.Errors))
		return nil
	}

	st, err := connectStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureProject(ctx, crawlProjectID); err != nil {
		return fmt.Errorf("failed to prepare project: %w", err)
	}
	inserted, err := st.SetDocumentURLs(ctx, crawlProjectID, result.Found)
	if err != nil {
		return fmt.Errorf("failed to store URLs: %w", err)
	}

	log.Info("crawl stored",
		zap.String("project", crawlProjectID),
		zap.Int("found", len(result.Found)),
		zap.Int64("inserted", inserted),
	)
	_, _ = fmt.Fprintf(os.Stdout, "Found %d pages (%d errors), %d new URLs stored\n",
		len(result.Found), len(result.Errors), inserted)
	return nil
}
