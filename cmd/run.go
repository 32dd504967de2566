package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"medicamentos-etl/feature/medicamentos"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd transforms the raw inputs and publishes the result.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform the ANVISA and CMED files and publish the canonical dataset",
	Long: `Reads the latest ANVISA and CMED files, merges them into the canonical dataset,
writes the exchange file and swaps it into PostgreSQL and Elasticsearch.

Exit codes:
  0   every target published
  1   unclassified failure
  3   degraded: some targets published, others kept their previous contents
  65  input data rejected (schema or ambiguous join)
  75  transient failure, rerun with the same input`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.pipeline()
	if err != nil {
		return err
	}

	a.log.Info("Starting pipeline run")
	result, err := svc.Run(ctx)
	if result != nil {
		logTransform(a.log, result.Transform)
		logReport(a.log, result.Publish)
	}
	return err
}

// logTransform prints the merge statistics and degradation counts.
func logTransform(l *zap.Logger, tr *medicamentos.TransformResult) {
	if tr == nil {
		return
	}
	l.Info("Transform report",
		zap.String("anvisa", tr.Inputs.AnvisaPath),
		zap.String("cmed", tr.Inputs.CMEDPath),
		zap.Int("anvisa_rows", tr.AnvisaRows),
		zap.Int("cmed_rows", tr.CMEDRows),
		zap.Int("matched", tr.Merge.Matched),
		zap.Int("unmatched_anvisa", tr.Merge.UnmatchedAnvisa),
		zap.Int("unmatched_cmed", tr.Merge.UnmatchedCMED),
		zap.Int("ambiguous", tr.Merge.Ambiguous),
		zap.Int("degraded_rows", tr.Degradations.Total),
		zap.Int("dropped_rows", tr.Degradations.Dropped),
		zap.String("output", tr.Output),
	)
	if tr.Archived != "" {
		l.Info("Canonical file archived", zap.String("object", tr.Archived))
	}
	for reason, n := range tr.Degradations.ByReason {
		l.Info("Degradations", zap.String("reason", reason), zap.Int("count", n))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM. A swap interrupted before its
// atomic step leaves production untouched.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
