package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/model"
)

// WriteCompetitorsCSV writes the enriched competitor table as RFC 4180 CSV
// with a header row.
func WriteCompetitorsCSV(w io.Writer, comps []model.EnrichedCompetitor) error {
	return writeCSV(w, competitorHeader, competitorRows(comps))
}

// WriteMatchesCSV writes the product comparison matrix as CSV.
func WriteMatchesCSV(w io.Writer, matches []model.ProductMatch) error {
	return writeCSV(w, matchHeader, matchRows(matches))
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
