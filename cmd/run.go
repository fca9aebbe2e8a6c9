package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/leadlab/enrich-cli/internal/model"
)

var runInput model.CompanyInput

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a single company and print the stored record",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runInput.Website == "" {
			return eris.New("--url is required")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Pipeline.Run(ctx, runInput)
		if err != nil {
			return eris.Wrap(err, "run enrichment")
		}
		if err := env.Store.UpsertEnriched(ctx, rec); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput.Website, "url", "", "company website URL (required)")
	runCmd.Flags().StringVar(&runInput.Name, "name", "", "company name")
	runCmd.Flags().StringVar(&runInput.Industry, "industry", "", "industry label")
	runCmd.Flags().StringVar(&runInput.PrefectureHint, "prefecture", "", "prefecture hint")
	rootCmd.AddCommand(runCmd)
}
