package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"medicamentos-etl/core/publish"
	"medicamentos-etl/feature/manual"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cleanupDryRun    bool
	cleanupOlderThan time.Duration
	yesConfirm       bool
)

// cleanupCmd drops staging tables and indices left behind by interrupted publishes.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup [name]",
	Short: "Drop orphaned staging tables and indices",
	Long: `Lists staging tables and indices of a dataset that no production name points at
and drops them. Without a name the medicamentos table and alias are cleaned.

Examples:
  # Report only
  cleanup --dry-run

  # Drop artifacts older than 10 minutes without prompting
  cleanup --older-than 10m --yes

  # Clean a manual dataset
  cleanup cid10 --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "List artifacts without dropping them")
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 0, "Only drop artifacts older than this (defaults to publish.stale_after)")
	cleanupCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	dest := publish.Destination{Table: a.cfg.Pipeline.Table, Alias: a.cfg.Pipeline.Alias}
	if len(args) == 1 {
		name, err := manual.TableName(args[0])
		if err != nil {
			return err
		}
		dest = publish.Destination{Table: name, Alias: name}
	}

	olderThan := cleanupOlderThan
	if olderThan <= 0 {
		olderThan = a.cfg.Publish.StaleAfter
	}

	// Step 1: Plan (always runs)
	plan, err := a.coordinator.PlanCleanup(ctx, dest, olderThan)
	if err != nil {
		return fmt.Errorf("failed to plan cleanup: %w", err)
	}
	printCleanupPlan(a.log, dest, plan)

	if plan.Total() == 0 {
		a.log.Info("No orphaned artifacts found.")
		return nil
	}
	if cleanupDryRun {
		a.log.Info("Dry-run mode: No changes were made.")
		return nil
	}

	// Step 2: Apply (if confirmed)
	if !confirmDestructiveAction() {
		a.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	dropped, err := a.coordinator.ApplyCleanup(ctx, dest, plan, publish.CleanupOptions{})
	a.log.Info("Dropped artifacts", zap.Int("count", dropped))
	if err != nil {
		return fmt.Errorf("failed to apply cleanup: %w", err)
	}
	return nil
}

func printCleanupPlan(l *zap.Logger, dest publish.Destination, plan *publish.CleanupPlan) {
	l.Info("Cleanup plan",
		zap.String("table", dest.Table),
		zap.String("alias", dest.Alias),
		zap.Time("cutoff", plan.Cutoff),
		zap.Int("total", plan.Total()),
	)
	for target, names := range plan.Artifacts {
		for _, name := range names {
			l.Info("Orphaned artifact", zap.String("target", target), zap.String("name", name))
		}
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
