package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixStructure bool

// integrityCmd checks a published dataset across both stores.
var integrityCmd = &cobra.Command{
	Use:   "integrity [name]",
	Short: "Check that a published table and alias agree",
	Long: `Compares the production table with the documents behind its alias and lists
orphaned staging artifacts. Without a name the medicamentos dataset is checked.
With storage enabled the bucket layout is checked as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIntegrity,
}

func init() {
	integrityCmd.Flags().BoolVar(&fixStructure, "fix", false, "Create missing bucket prefixes")
	RootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.integrity(0)

	if a.store != nil {
		structure, err := svc.CheckStructure(ctx, fixStructure)
		if err != nil {
			return fmt.Errorf("failed to check storage structure: %w", err)
		}
		if len(structure.Fixed) > 0 {
			a.log.Info("Bucket prefixes created", zap.Strings("prefixes", structure.Fixed))
		}
		if !structure.OK() {
			a.log.Warn("Bucket structure incomplete",
				zap.String("bucket", structure.Bucket),
				zap.Bool("bucket_exists", structure.BucketExists),
				zap.Strings("missing", structure.Missing),
			)
		}
	}

	name := a.cfg.Pipeline.Table
	if len(args) == 1 {
		name = args[0]
	}
	report, err := svc.Check(ctx, name, true)
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.String("name", report.Name), zap.Bool("consistent", report.Consistent)}
	if report.Table != nil {
		fields = append(fields, zap.Bool("table_exists", report.Table.Exists), zap.Int64("table_rows", report.Table.Rows))
	}
	if report.Alias != nil {
		fields = append(fields, zap.Strings("indices", report.Alias.Indices), zap.Int64("documents", report.Alias.Documents))
	}
	a.log.Info("Integrity report", fields...)
	for target, names := range report.Orphans {
		a.log.Warn("Orphaned artifacts", zap.String("target", target), zap.Strings("names", names))
	}
	if !report.Consistent {
		for _, p := range report.Problems {
			a.log.Error("Problem", zap.String("problem", p))
		}
		return fmt.Errorf("dataset %s is inconsistent: %d problems", report.Name, len(report.Problems))
	}
	return nil
}
