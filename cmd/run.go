package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twmarket/chips-cli/internal/pipeline"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute and store the snapshot for a trading date",
	Long:  "Fetches every metric group, extracts the indicators, and upserts the finalized snapshot. Without --date the trading calendar picks the most recent published date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		date, err := resolveDate(e.Clock, runDate)
		if err != nil {
			return err
		}

		snap, err := e.Runner.Run(ctx, date)

		// A persistence failure still yields a usable snapshot; print it
		// before reporting the error.
		var pe *pipeline.PersistenceError
		if err != nil && !errors.As(err, &pe) {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(snap); encErr != nil {
			return encErr
		}

		if pe != nil {
			zap.L().Error("snapshot not persisted", zap.Error(pe))
			return pe
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "trading date (YYYY-MM-DD, default: latest published)")
	rootCmd.AddCommand(runCmd)
}
