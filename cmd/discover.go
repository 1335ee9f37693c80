package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/internal/rank"
	"github.com/stratevo/intel-cli/pkg/serper"
)

var (
	discoverExcludeHosts []string
	discoverNum          int
)

var discoverCmd = &cobra.Command{
	Use:   "discover <sector or product terms...>",
	Short: "Discover competitor candidates via web search",
	Long:  "Searches the web for the given sector or product terms, filters out job postings, articles, and marketplaces, and ranks company candidates by relevance.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("discover"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ranker, err := newRanker()
		if err != nil {
			return err
		}

		query := strings.Join(args, " ") + " empresas fabricantes"
		params, _ := json.Marshal(map[string]any{"query": query})
		run, err := st.CreateRun(ctx, cfg.Tenant.ID, model.RunKindDiscover, params)
		if err != nil {
			return err
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			return err
		}

		results, err := newSearchClient().Search(ctx, query,
			serper.WithLocale("br", "pt-br"), serper.WithNum(discoverNum))
		if err != nil {
			// Failed upstream means zero candidates, not a failed run: record
			// and present the empty result.
			zap.L().Warn("discover: search failed", zap.Error(err))
			if evErr := st.AppendEvent(ctx, run.ID, "warn", "search failed: "+err.Error()); evErr != nil {
				zap.L().Warn("append event", zap.Error(evErr))
			}
			results = nil
		}

		candidates := ranker.Rank(results, rank.Query{
			Terms:        args,
			ExcludeHosts: discoverExcludeHosts,
		})

		summary, err := json.Marshal(map[string]any{
			"raw_results": len(results),
			"candidates":  candidates,
		})
		if err != nil {
			return eris.Wrap(err, "discover: marshal summary")
		}
		if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
			return err
		}

		if len(candidates) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates found.")
			return nil
		}
		formatCandidates(os.Stdout, candidates)
		fmt.Fprintf(os.Stdout, "\nRun %s complete.\n", run.ID)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringSliceVar(&discoverExcludeHosts, "exclude-host", nil, "hostnames to drop from results (e.g. your own domain)")
	discoverCmd.Flags().IntVar(&discoverNum, "num", 20, "number of search results to request")
	rootCmd.AddCommand(discoverCmd)
}

func formatCandidates(out io.Writer, candidates []model.Candidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RELEVANCE\tNAME\tWEBSITE")
	_, _ = fmt.Fprintln(w, "---------\t----\t-------")
	for _, c := range candidates {
		name := c.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%.0f\t%s\t%s\n", c.Relevance, name, c.Website)
	}
	_ = w.Flush()
}
