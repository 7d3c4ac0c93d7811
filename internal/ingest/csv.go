package ingest

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ParseCSV decodes CSV content. The first row is the header.
func ParseCSV(r io.Reader) ([]model.Record, *Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.New("ingest: empty file")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read header")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "ingest: read row")
		}
		rows = append(rows, row)
	}

	return buildRecords(header, rows)
}
