package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover new leads from public sources",
	Long:  `Search GitHub and the news for companies showing security or authentication intent and register the new ones as leads.`,
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	svc := discovery.New(database, cfg.GitHubToken, cfg.NewsAPIKey, cfg.RequestTimeout)
	inserted, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("discovery run failed: %w", err)
	}

	fmt.Printf("Discovery complete: %d new leads\n", inserted)
	return nil
}
