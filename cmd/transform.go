package cmd

import (
	"github.com/spf13/cobra"
)

// transformCmd writes the canonical exchange file without publishing it.
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Write the canonical exchange file without publishing",
	Long: `Normalizes and merges the ANVISA and CMED files and writes the canonical
exchange file to the processed directory. Neither store is contacted.`,
	Args: cobra.NoArgs,
	RunE: runTransform,
}

func init() {
	RootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.pipeline()
	if err != nil {
		return err
	}

	result, err := svc.Transform(ctx)
	if err != nil {
		return err
	}
	logTransform(a.log, result)
	return nil
}
