package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadlab/enrich-cli/internal/model"
)

// ParseXLSXLeads reads a lead list from an XLSX workbook. The first row of
// the selected sheet must be a header naming at least the website and company
// name columns.
func ParseXLSXLeads(path string, opts Options) ([]model.CompanyInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := leadSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: empty sheet")
	}

	cols := mapHeader(rowToStrings(sheet.Rows[0]))
	if !cols.valid() {
		return nil, eris.Errorf("xlsx: sheet %q missing website or name column", sheet.Name)
	}

	var leads []model.CompanyInput
	for _, row := range sheet.Rows[1:] {
		if in, ok := cols.rowToInput(rowToStrings(row)); ok {
			leads = append(leads, in)
		}
	}
	return leads, nil
}

func leadSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
