package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twmarket/chips-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chips-cli",
	Short: "Taiwan market chip-flow snapshot pipeline",
	Long:  "Fetches the TWSE and TAIFEX daily publications, extracts institutional flow and positioning indicators through a resilient strategy chain, and stores one finalized snapshot per trading date.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
