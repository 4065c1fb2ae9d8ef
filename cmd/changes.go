package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/twmarket/chips-cli/internal/model"
)

var (
	changesDate   string
	changesStreak string
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show day-over-day changes for a stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		date, err := resolveDate(e.Clock, changesDate)
		if err != nil {
			return err
		}
		dateStr := date.Format(model.DateLayout)

		recs, err := e.Tracker.Changes(ctx, dateStr)
		if err != nil {
			return err
		}

		out := struct {
			TradingDate string `json:"trading_date"`
			Changes     any    `json:"changes"`
			Streak      *struct {
				Field string `json:"field"`
				Days  int    `json:"days"`
			} `json:"streak,omitempty"`
		}{TradingDate: dateStr, Changes: recs}

		if changesStreak != "" {
			days, err := e.Tracker.Streak(ctx, dateStr, changesStreak)
			if err != nil {
				return err
			}
			out.Streak = &struct {
				Field string `json:"field"`
				Days  int    `json:"days"`
			}{Field: changesStreak, Days: days}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	changesCmd.Flags().StringVar(&changesDate, "date", "", "trading date (YYYY-MM-DD, default: latest published)")
	changesCmd.Flags().StringVar(&changesStreak, "streak", "", "also report the consecutive same-sign streak for this field")
	rootCmd.AddCommand(changesCmd)
}
