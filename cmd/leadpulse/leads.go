package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkessler/leadpulse/internal/db"
)

var (
	leadsHighIntent bool
	leadsMinScore   float64
	leadsLimit      int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List tracked leads",
	Long:  `List active leads with their intent scores, optionally restricted to high-intent leads.`,
	RunE:  runLeads,
}

func init() {
	leadsCmd.Flags().BoolVar(&leadsHighIntent, "high-intent", false, "Only show leads at or above the intent threshold")
	leadsCmd.Flags().Float64Var(&leadsMinScore, "min-score", 0, "Intent threshold for --high-intent (0 uses HIGH_INTENT_THRESHOLD)")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 50, "Maximum number of leads to list")
	rootCmd.AddCommand(leadsCmd)
}

func runLeads(cmd *cobra.Command, _ []string) error {
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

	var leads []db.Lead
	if leadsHighIntent {
		minScore := leadsMinScore
		if minScore == 0 {
			minScore = cfg.HighIntentThreshold
		}
		leads, err = database.HighIntentLeads(ctx, minScore, leadsLimit)
	} else {
		leads, err = database.ListLeads(ctx, leadsLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	printLeads(cmd.OutOrStdout(), leads)
	return nil
}

func printLeads(w io.Writer, leads []db.Lead) {
	if len(leads) == 0 {
		fmt.Fprintln(w, "No leads found")
		return
	}

	fmt.Fprintf(w, "%-30s %-12s %s\n", "DOMAIN", "INTENT", "LAST UPDATED")
	for _, lead := range leads {
		fmt.Fprintf(w, "%-30s %-12.3f %s\n",
			lead.Domain, lead.IntentScore, lead.LastUpdated.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d leads\n", len(leads))
}
