package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/export"
)

var (
	exportOut  string
	exportTier string
)

var exportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Export a stored batch's results as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		b, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return err
		}
		if !b.Status.Terminal() {
			return eris.Errorf("batch %s is %s, results are not final", b.ID, b.Status)
		}

		status, err := export.ParseStatusFilter(exportTier)
		if err != nil {
			return err
		}
		opts := export.Options{Status: status}

		outPath := exportOut
		if outPath == "" {
			outPath = export.FileName(b, opts)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close()
		if err := export.WriteCSV(f, b, opts); err != nil {
			return err
		}

		zap.L().Info("batch exported",
			zap.String("batch", b.ID),
			zap.String("output", outPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output CSV path")
	exportCmd.Flags().StringVar(&exportTier, "tier", "", "only export one tier (exact, partial, invalid, not_processed)")
	rootCmd.AddCommand(exportCmd)
}
