package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/enrich"
	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/internal/store"
	"github.com/stratevo/intel-cli/pkg/rpc"
)

var (
	analyzeInput      string
	analyzeOwnCapital float64
	analyzePush       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Enrich and classify a competitor list",
	Long:  "Reads a competitor list, refreshes registry data, scores digital presence, classifies threat levels, and records the run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		ctx := cmd.Context()

		comps, err := loadCompetitorsFile(analyzeInput)
		if err != nil {
			return err
		}
		if len(comps) == 0 {
			return eris.New("analyze: competitor list is empty")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		params, _ := json.Marshal(map[string]any{
			"competitors": len(comps),
			"own_capital": analyzeOwnCapital,
		})
		run, err := st.CreateRun(ctx, cfg.Tenant.ID, model.RunKindAnalyze, params)
		if err != nil {
			return err
		}

		enricher := newEnricher(st, analyzeOwnCapital)
		summary, enriched, err := runAnalysis(ctx, st, enricher, cfg.Tenant.ID, run.ID, comps)
		if err != nil {
			return err
		}

		if analyzePush {
			if err := pushAnalysis(ctx, st, run.ID, summary, enriched); err != nil {
				return err
			}
		}

		formatCompetitors(os.Stdout, enriched)
		formatSummary(os.Stdout, summary)
		fmt.Fprintf(os.Stdout, "\nRun %s complete.\n", run.ID)
		return nil
	},
}

// pushAnalysis sends the finished analysis to the backend over RPC so the
// CRM picks it up. Push failures are recorded on the run but do not fail it;
// the local results are already persisted.
func pushAnalysis(ctx context.Context, st store.Store, runID string, summary model.AnalysisSummary, enriched []model.EnrichedCompetitor) error {
	if cfg.RPC.BaseURL == "" {
		return eris.New("analyze: --push requires rpc.base_url in config")
	}
	client := rpc.NewClient(cfg.RPC.BaseURL, cfg.RPC.Token)
	payload := map[string]any{
		"tenant_id":   cfg.Tenant.ID,
		"run_id":      runID,
		"summary":     summary,
		"competitors": enriched,
	}
	if _, err := client.Invoke(ctx, "save_competitive_analysis", payload); err != nil {
		zap.L().Warn("analyze: push failed", zap.String("run_id", runID), zap.Error(err))
		if evErr := st.AppendEvent(ctx, runID, "warn", "push failed: "+err.Error()); evErr != nil {
			zap.L().Warn("append event", zap.Error(evErr))
		}
		return nil
	}
	if err := st.AppendEvent(ctx, runID, "info", "analysis pushed to backend"); err != nil {
		zap.L().Warn("append event", zap.Error(err))
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "JSON file with the competitor list (required)")
	analyzeCmd.Flags().Float64Var(&analyzeOwnCapital, "own-capital", 0, "your registered capital (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzePush, "push", false, "push results to the configured RPC backend")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

// runAnalysis drives one analysis run end to end and records its outcome.
// Shared by the CLI command and the HTTP API.
func runAnalysis(ctx context.Context, st store.Store, enricher *enrich.Enricher, tenantID, runID string, comps []model.Competitor) (model.AnalysisSummary, []model.EnrichedCompetitor, error) {
	if err := st.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
		return model.AnalysisSummary{}, nil, err
	}
	if err := st.AppendEvent(ctx, runID, "info", fmt.Sprintf("analysis started for %d competitors", len(comps))); err != nil {
		zap.L().Warn("append event", zap.Error(err))
	}

	enriched, err := enricher.EnrichAll(ctx, tenantID, runID, comps)
	if err != nil {
		if failErr := st.FailRun(ctx, runID, err.Error()); failErr != nil {
			zap.L().Warn("fail run", zap.Error(failErr))
		}
		return model.AnalysisSummary{}, nil, eris.Wrap(err, "analyze: enrichment")
	}

	summary := model.Summarize(enriched)
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return model.AnalysisSummary{}, nil, eris.Wrap(err, "analyze: marshal summary")
	}
	if err := st.CompleteRun(ctx, runID, summaryJSON); err != nil {
		return model.AnalysisSummary{}, nil, err
	}
	if err := st.AppendEvent(ctx, runID, "info", "analysis complete"); err != nil {
		zap.L().Warn("append event", zap.Error(err))
	}
	return summary, enriched, nil
}

// formatCompetitors writes the enriched competitor table to w.
func formatCompetitors(out io.Writer, comps []model.EnrichedCompetitor) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTAX_ID\tCAPITAL\tTHREAT\tPRESENCE\tWEBSITE")
	_, _ = fmt.Fprintln(w, "----\t------\t-------\t------\t--------\t-------")

	for _, c := range comps {
		website := c.Website
		if website == "" {
			website = c.DiscoveredWebsite
		}
		name := c.Name()
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%d\t%s\n",
			name, c.TaxID, c.RegisteredCapital, c.ThreatLevel, c.DigitalPresenceScore, website)
	}
	_ = w.Flush()
}

// formatSummary writes the aggregate block below the table.
func formatSummary(out io.Writer, s model.AnalysisSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Competitors:\t%d\n", s.TotalCompetitors)
	_, _ = fmt.Fprintf(w, "Total capital:\t%.2f\n", s.TotalCapital)
	if s.LargestCompetitor != "" {
		_, _ = fmt.Fprintf(w, "Largest:\t%s (%.2f)\n", s.LargestCompetitor, s.LargestCapital)
	}
	_, _ = fmt.Fprintf(w, "Threats:\t%d high / %d medium / %d low\n",
		s.ThreatCounts[model.ThreatHigh], s.ThreatCounts[model.ThreatMedium], s.ThreatCounts[model.ThreatLow])
	_, _ = fmt.Fprintf(w, "Avg presence:\t%.1f\n", s.AvgDigitalPresence)
	_ = w.Flush()
}
