package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var askProjectID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from a project's embedded documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askProjectID, "project", "p", "", "Project identifier (required)")
	if err := askCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
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

	answerText, err := newAnswerer(cfg, st, client, log).Answer(ctx, askProjectID, question)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	_, _ = fmt.Fprintln(os.Stdout, answerText)
	return nil
}
