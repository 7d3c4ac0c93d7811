package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/export"
	"github.com/sells-group/enrich-cli/internal/ingest"
	"github.com/sells-group/enrich-cli/internal/model"
)

var analyzeOut string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <spreadsheet>",
	Short: "Enrich a spreadsheet and write the results as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrap(err, "read spreadsheet")
		}

		records, report, err := ingest.Parse(filepath.Base(path), data)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.New("no usable rows: every row needs a name and an email address")
		}
		zap.L().Info("spreadsheet parsed",
			zap.Int("rows", report.TotalRows),
			zap.Int("imported", report.Imported),
			zap.Int("skipped", report.SkippedRows),
		)

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scorer, err := newScorer()
		if err != nil {
			return err
		}

		b := model.NewBatch(uuid.NewString(), filepath.Base(path), records)
		if err := st.CreateBatch(ctx, b); err != nil {
			return err
		}

		source := newSourceFactory()
		resolver := enrich.NewResolver(source(records), scorer, retryConfig())
		o := enrich.NewOrchestrator(st, resolver, orchestratorConfig())
		if err := o.Run(ctx, b.ID); err != nil {
			return err
		}

		final, err := st.GetBatch(ctx, b.ID)
		if err != nil {
			return err
		}

		outPath := analyzeOut
		if outPath == "" {
			outPath = strings.TrimSuffix(path, filepath.Ext(path)) + "_enriched.csv"
		}
		f, err := os.Create(outPath)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close()
		if err := export.WriteCSV(f, final, export.Options{}); err != nil {
			return err
		}

		c := final.Counts()
		zap.L().Info("analysis complete",
			zap.String("output", outPath),
			zap.Int("exact", c.Exact),
			zap.Int("partial", c.Partial),
			zap.Int("invalid", c.Invalid),
		)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "output CSV path (default <input>_enriched.csv)")
	rootCmd.AddCommand(analyzeCmd)
}
