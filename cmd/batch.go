package main

import (
	"context"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/dispatch"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/store"
	"github.com/leadlab/enrich-cli/pkg/notion"
)

var (
	batchSource   string
	batchIndustry string
	batchLimit    int
	batchAll      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch enrich companies from the queue or a Notion lead database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		coordinator := dispatch.NewCoordinator(
			env.Dispatcher, env.Store,
			cfg.Batch.Size,
			time.Duration(cfg.Batch.CooldownSecs)*time.Second,
		)

		var stats *dispatch.Stats
		switch batchSource {
		case "queue":
			stats, err = coordinator.RunBatches(ctx, store.Filter{
				Industry:   batchIndustry,
				Unenriched: !batchAll,
				Limit:      batchLimit,
			})
		case "notion":
			stats, err = runNotionBatch(ctx, env)
		default:
			return eris.Errorf("unknown batch source %q (want queue or notion)", batchSource)
		}
		if err != nil {
			return err
		}

		zap.L().Info("batch finished",
			zap.Int("total", stats.Total),
			zap.Int("succeeded", stats.Succeeded),
			zap.Int("failed", stats.Failed),
			zap.Int("skipped", stats.Skipped),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchSource, "source", "queue", "lead source: queue or notion")
	batchCmd.Flags().StringVar(&batchIndustry, "industry", "", "restrict to one industry")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of companies to process")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "re-enrich companies that already have an ok record")
	rootCmd.AddCommand(batchCmd)
}

// runNotionBatch pulls queued leads from the configured Notion database,
// enriches them, and writes each lead's final status back.
func runNotionBatch(ctx context.Context, env *pipelineEnv) (*dispatch.Stats, error) {
	if env.Notion == nil || cfg.Notion.LeadDB == "" {
		return nil, eris.New("notion.token and notion.lead_db must be configured for --source notion")
	}

	pages, err := notion.QueryQueuedLeads(ctx, env.Notion, cfg.Notion.LeadDB)
	if err != nil {
		return nil, eris.Wrap(err, "query queued leads")
	}
	if batchLimit > 0 && len(pages) > batchLimit {
		pages = pages[:batchLimit]
	}

	companies := make([]model.CompanyInput, 0, len(pages))
	pageByWebsite := make(map[string]string, len(pages))
	for _, page := range pages {
		in := leadToInput(page)
		if in.Website == "" {
			continue
		}
		companies = append(companies, in)
		pageByWebsite[in.Website] = string(page.ID)
	}

	stats, err := env.Dispatcher.Dispatch(ctx, companies, nil)
	if err != nil {
		return stats, err
	}

	for _, website := range sortedKeys(pageByWebsite) {
		status, getErr := env.Store.GetStatus(ctx, website)
		if getErr != nil {
			continue
		}
		notionStatus := "Enriched"
		if status == model.StatusFailed {
			notionStatus = "Failed"
		}
		if markErr := notion.MarkStatus(ctx, env.Notion, pageByWebsite[website], notionStatus); markErr != nil {
			zap.L().Warn("failed to update notion lead status",
				zap.String("website", website),
				zap.Error(markErr),
			)
		}
	}
	return stats, nil
}

// leadToInput maps a Notion lead page onto a company input.
func leadToInput(page notionapi.Page) model.CompanyInput {
	return model.CompanyInput{
		Website:        strings.TrimSpace(notion.PageURL(page, "URL")),
		Name:           strings.TrimSpace(notion.PageTitle(page, "Name")),
		Industry:       strings.TrimSpace(notion.PageSelect(page, "Industry")),
		PrefectureHint: strings.TrimSpace(notion.PageRichText(page, "Prefecture")),
		InquiryURL:     strings.TrimSpace(notion.PageURL(page, "Inquiry")),
	}
}

// sortedKeys keeps the write-back order deterministic for stable logs.
func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
