package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadlab/enrich-cli/internal/monitoring"
)

var statusFailures int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize stored enrichment outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := monitoring.NewCollector(st).Collect(ctx, statusFailures)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusFailures, "failures", 10, "number of recent failures to include")
	rootCmd.AddCommand(statusCmd)
}
