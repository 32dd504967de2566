package cmd

import (
	"errors"
	"fmt"
	"os"

	"medicamentos-etl/core/logger"
	"medicamentos-etl/core/publish"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes let a scheduler decide whether to rerun a failed publish.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitDegraded  = 3
	ExitDataError = 65 // EX_DATAERR
	ExitRetryable = 75 // EX_TEMPFAIL
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "medicamentos-etl",
	Short: "Medicamentos ETL",
	Long: `Medicamentos ETL merges the ANVISA registration list with the CMED price list
and publishes the canonical dataset to PostgreSQL and Elasticsearch without downtime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps, matching what an operator expects from a CLI.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err), zap.Int("exit_code", ExitCode(err)))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(ExitCode(err))
	}
}

// ExitCode classifies a command error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var pubErr *publish.PublishError
	if errors.As(err, &pubErr) {
		if pubErr.Report != nil && pubErr.Report.Outcome == publish.OutcomeDegraded {
			return ExitDegraded
		}
		if pubErr.Retryable() {
			return ExitRetryable
		}
	}

	switch publish.KindOf(err) {
	case publish.KindSchema, publish.KindAmbiguousJoin:
		return ExitDataError
	}

	var pe *publish.Error
	if errors.As(err, &pe) && pe.Retryable() {
		return ExitRetryable
	}
	return ExitFailure
}
