package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/engine"
	"github.com/mkessler/leadpulse/internal/server"
)

var collectCmd = &cobra.Command{
	Use:   "collect <lead-id|domain>",
	Short: "Run signal collection for one lead",
	Long:  `Run every configured collector against a single lead synchronously and print the updated scores.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
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

	lead, err := resolveLead(ctx, database, args[0])
	if err != nil {
		return err
	}

	runner := engine.New(database, server.Collectors(cfg), cfg.Weights, 5*time.Minute)
	if err := runner.Run(ctx, lead.ID); err != nil {
		return fmt.Errorf("collection run failed: %w", err)
	}

	updated, err := database.GetLeadByID(ctx, lead.ID)
	if err != nil {
		return fmt.Errorf("failed to reload lead: %w", err)
	}

	grouped, err := database.SignalsByCategory(ctx, lead.ID)
	if err != nil {
		return fmt.Errorf("failed to load signals: %w", err)
	}

	fmt.Printf("Lead: %s (%s)\n", updated.CompanyName, updated.Domain)
	fmt.Printf("Intent score: %.3f\n", updated.IntentScore)
	for cat, score := range updated.CategoryScores {
		fmt.Printf("  %-22s %.3f  (%d signals)\n", cat, score, len(grouped[cat]))
	}
	return nil
}

// resolveLead accepts either a lead UUID or a domain.
func resolveLead(ctx context.Context, database *db.DB, ref string) (*db.Lead, error) {
	if id, err := uuid.Parse(ref); err == nil {
		lead, err := database.GetLeadByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load lead: %w", err)
		}
		if lead == nil {
			return nil, &db.ErrLeadNotFound{LeadID: id}
		}
		return lead, nil
	}

	lead, err := database.GetLeadByDomain(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	if lead == nil {
		return nil, fmt.Errorf("no lead with domain %q", ref)
	}
	return lead, nil
}
