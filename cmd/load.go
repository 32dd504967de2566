package cmd

import (
	"strings"

	"medicamentos-etl/feature/manual"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loadTable    string
	loadKey      []string
	loadEncoding string
)

// loadCmd publishes a manual reference file under its own table and alias.
var loadCmd = &cobra.Command{
	Use:   "load <filename>",
	Short: "Publish a manual reference file",
	Long: `Reads an already-tabular file from the manual data directory and swaps it into a
table and alias of the same name (or --table-name) using the same zero-downtime publish.

Examples:
  # Publish dados_manuais/cid10.csv as table and alias "cid10"
  load cid10.csv

  # Publish under another name with a primary key
  load tabela_ncm.csv --table-name ncm --key codigo`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadTable, "table-name", "", "Destination table and alias (defaults to the file's base name)")
	loadCmd.Flags().StringSliceVar(&loadKey, "key", nil, "Primary-key columns")
	loadCmd.Flags().StringVar(&loadEncoding, "encoding", "", "File encoding (utf-8 or latin1)")
	RootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.manual().Load(ctx, manual.Request{
		File:     args[0],
		Table:    loadTable,
		Key:      loadKey,
		Encoding: strings.TrimSpace(loadEncoding),
	})
	if result != nil {
		a.log.Info("Manual load report",
			zap.String("file", result.File),
			zap.String("table", result.Table),
			zap.Int("rows", result.Rows),
			zap.Int("columns", len(result.Columns)),
			zap.Bool("skipped", result.Skipped),
		)
		logReport(a.log, result.Publish)
	}
	return err
}
