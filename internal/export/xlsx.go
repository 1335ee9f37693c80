package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/stratevo/intel-cli/internal/model"
)

// WriteCompetitorsXLSX writes a workbook with a competitor sheet and a
// summary sheet.
func WriteCompetitorsXLSX(w io.Writer, comps []model.EnrichedCompetitor, summary model.AnalysisSummary) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Concorrentes")
	if err != nil {
		return eris.Wrap(err, "export: add competitor sheet")
	}
	addRow(sheet, competitorHeader)
	for _, row := range competitorRows(comps) {
		addRow(sheet, row)
	}

	sumSheet, err := f.AddSheet("Resumo")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	for _, row := range summaryRows(summary) {
		addRow(sumSheet, row)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
