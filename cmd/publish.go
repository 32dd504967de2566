package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// publishCmd swaps an existing exchange file into production.
var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Publish an existing canonical exchange file",
	Long: `Reads a canonical exchange file and swaps it into the production table and alias.
Without an argument the file written by the last transform is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	RootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
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

	file := svc.ExchangeFile()
	if len(args) == 1 {
		file = args[0]
	}
	a.log.Info("Publishing exchange file", zap.String("file", file))

	report, err := svc.Publish(ctx, file)
	logReport(a.log, report)
	return err
}
