package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	snapshotsDate  string
	snapshotsLimit int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored trading dates, or dump one snapshot with --date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if snapshotsDate != "" {
			snap, err := e.Store.GetSnapshot(ctx, snapshotsDate)
			if err != nil {
				return err
			}
			if snap == nil {
				return eris.Errorf("no snapshot for %s", snapshotsDate)
			}
			return enc.Encode(snap)
		}

		dates, err := e.Store.ListDates(ctx, snapshotsLimit)
		if err != nil {
			return err
		}
		return enc.Encode(dates)
	},
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsDate, "date", "", "dump the snapshot for this trading date")
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 30, "max dates to list")
	rootCmd.AddCommand(snapshotsCmd)
}
