package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

var batchesStatus string

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List stored batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		batches, err := st.ListBatches(ctx, store.BatchFilter{
			Status: model.BatchStatus(batchesStatus),
		})
		if err != nil {
			return err
		}

		if len(batches) == 0 {
			fmt.Println("no batches")
			return nil
		}

		fmt.Printf("%-36s  %-10s  %6s  %6s  %7s  %7s  %s\n",
			"ID", "STATUS", "TOTAL", "EXACT", "PARTIAL", "INVALID", "FILE")
		for i := range batches {
			b := &batches[i]
			c := b.Counts()
			fmt.Printf("%-36s  %-10s  %6d  %6d  %7d  %7d  %s\n",
				b.ID, b.Status, c.Total, c.Exact, c.Partial, c.Invalid, b.FileName)
		}
		return nil
	},
}

func init() {
	batchesCmd.Flags().StringVar(&batchesStatus, "status", "", "filter by batch status (uploaded, analyzing, completed, failed)")
	rootCmd.AddCommand(batchesCmd)
}
