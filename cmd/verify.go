package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check connectivity to the external source and the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		source := newSourceFactory()
		if err := source(nil).Healthcheck(ctx); err != nil {
			return err
		}
		mode := "live"
		if cfg.Apollo.Stub() {
			mode = "stub"
		}
		zap.L().Info("external source reachable", zap.String("mode", mode))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		zap.L().Info("store reachable", zap.String("driver", cfg.Store.Driver))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
