package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/fetcher"
)

var (
	importCharset string
	importSheet   string
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Import a company lead list into the queue",
	Long:  "Reads a CSV, TSV, XLSX, JSON, or zipped lead list from a local path, HTTP URL, or FTP URL and inserts new companies into the queue. Existing websites are left untouched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		leads, err := fetcher.LoadLeads(ctx, args[0], fetcher.Options{
			Charset: importCharset,
			Sheet:   importSheet,
		})
		if err != nil {
			return err
		}

		inserted, err := st.InsertCompanies(ctx, leads)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("source", args[0]),
			zap.Int("rows", len(leads)),
			zap.Int("inserted", inserted),
			zap.Int("duplicates", len(leads)-inserted),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCharset, "charset", "", "CSV text encoding (e.g. shift_jis); default UTF-8")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name; default first sheet")
	rootCmd.AddCommand(importCmd)
}
