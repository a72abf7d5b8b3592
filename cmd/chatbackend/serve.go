package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrnigelalford/chatBackend/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing crawl, embedding, and question endpoints behind the BOT_AUTH bearer token.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if err := cfg.RequireBotAuth(); err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := connectStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		BotAuth:    cfg.BotAuth,
		MaxDepth:   cfg.CrawlMaxDepth,
		JobTimeout: cfg.CrawlTimeout,
	},
		newCrawler(cfg, log),
		newIngestor(cfg, st, client, log),
		newAnswerer(cfg, st, client, log),
		st,
		log,
	)
	return srv.Start(ctx)
}
