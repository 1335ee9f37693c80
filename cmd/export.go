package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stratevo/intel-cli/internal/export"
	"github.com/stratevo/intel-cli/internal/model"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's competitors to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		ctx := cmd.Context()
		runID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Verify the run exists for this tenant before exporting.
		if _, err := st.GetRun(ctx, cfg.Tenant.ID, runID); err != nil {
			return eris.Wrapf(err, "export: run %s", runID)
		}

		comps, err := st.ListCompetitors(ctx, cfg.Tenant.ID, runID)
		if err != nil {
			return err
		}
		if len(comps) == 0 {
			return eris.Errorf("export: run %s has no competitors", runID)
		}

		out := exportOut
		if out == "" {
			out = export.Filename("competitors", exportFormat, time.Now())
		}
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", out)
		}
		defer f.Close() //nolint:errcheck

		switch exportFormat {
		case "csv":
			err = export.WriteCompetitorsCSV(f, comps)
		case "xlsx":
			err = export.WriteCompetitorsXLSX(f, comps, model.Summarize(comps))
		default:
			return eris.Errorf("export: unknown format %q (csv or xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Wrote %s (%d competitors)\n", out, len(comps))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: date-stamped filename)")
	rootCmd.AddCommand(exportCmd)
}
