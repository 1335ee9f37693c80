package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stratevo/intel-cli/internal/export"
	"github.com/stratevo/intel-cli/internal/match"
	"github.com/stratevo/intel-cli/internal/model"
)

var (
	compareProducts     string
	compareCompProducts string
	compareCSVOut       string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare your product catalog against competitor products",
	Long:  "Matches your products against the competitor catalog by name similarity and classifies each as exact, similar, or unique.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("compare"); err != nil {
			return err
		}
		ctx := cmd.Context()

		tenant, err := loadProductsFile(compareProducts)
		if err != nil {
			return err
		}
		comp, err := loadCompetitorProductsFile(compareCompProducts)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		params, _ := json.Marshal(map[string]any{
			"tenant_products":     len(tenant),
			"competitor_products": len(comp),
		})
		run, err := st.CreateRun(ctx, cfg.Tenant.ID, model.RunKindCompare, params)
		if err != nil {
			return err
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			return err
		}

		matches := match.MatchProducts(tenant, comp, match.Thresholds{
			Match: cfg.Analysis.MatchThreshold,
			Exact: cfg.Analysis.ExactThreshold,
		})

		if err := st.SaveProducts(ctx, cfg.Tenant.ID, run.ID, comp); err != nil {
			return err
		}
		summary, err := json.Marshal(map[string]any{"matches": matches})
		if err != nil {
			return eris.Wrap(err, "compare: marshal summary")
		}
		if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
			return err
		}

		formatMatches(os.Stdout, matches)

		if compareCSVOut != "" {
			f, err := os.Create(compareCSVOut)
			if err != nil {
				return eris.Wrapf(err, "compare: create %s", compareCSVOut)
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteMatchesCSV(f, matches); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\nWrote %s\n", compareCSVOut)
		}

		fmt.Fprintf(os.Stdout, "\nRun %s complete.\n", run.ID)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareProducts, "products", "", "JSON file with your products (required)")
	compareCmd.Flags().StringVar(&compareCompProducts, "competitor-products", "", "JSON file with competitor products (required)")
	compareCmd.Flags().StringVar(&compareCSVOut, "csv", "", "also write the matrix to a CSV file")
	_ = compareCmd.MarkFlagRequired("products")
	_ = compareCmd.MarkFlagRequired("competitor-products")
	rootCmd.AddCommand(compareCmd)
}

func formatMatches(out io.Writer, matches []model.ProductMatch) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRODUCT\tTYPE\tSCORE\tMATCHED")
	_, _ = fmt.Fprintln(w, "-------\t----\t-----\t-------")
	for _, m := range matches {
		matched := ""
		if len(m.MatchedCompetitorProducts) > 0 {
			best := m.MatchedCompetitorProducts[0]
			matched = best.Name + " (" + best.CompetitorName + ")"
			if len(m.MatchedCompetitorProducts) > 1 {
				matched += fmt.Sprintf(" +%d", len(m.MatchedCompetitorProducts)-1)
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", m.TenantProduct.Name, m.MatchType, m.MatchScore, matched)
	}
	_ = w.Flush()
}
