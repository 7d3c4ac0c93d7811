package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ParseXLSX decodes an XLSX workbook from disk. The first sheet is used and
// its first row is the header.
func ParseXLSX(path string) ([]model.Record, *Report, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open xlsx")
	}
	return recordsFromWorkbook(f)
}

// ParseXLSXBytes decodes an XLSX workbook from uploaded content.
func ParseXLSXBytes(data []byte) ([]model.Record, *Report, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open xlsx")
	}
	return recordsFromWorkbook(f)
}

func recordsFromWorkbook(f *xlsx.File) ([]model.Record, *Report, error) {
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("ingest: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("ingest: empty file")
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	return buildRecords(header, rows)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
