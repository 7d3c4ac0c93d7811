// Package ingest parses uploaded spreadsheets (CSV and XLSX) into input
// records. Header names are matched against a synonym table so exports from
// different HR tools map onto the same five fields.
package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

const (
	// DefaultCompany fills the company field when the sheet has no usable value.
	DefaultCompany = "Unknown Company"
	// DefaultPosition fills the position field when the sheet has no usable value.
	DefaultPosition = "Unknown Position"
)

// Report summarizes what happened to the uploaded rows.
type Report struct {
	TotalRows   int `json:"total_rows"`
	Imported    int `json:"imported"`
	SkippedRows int `json:"skipped_rows"`
}

// headerSynonyms maps a canonical field to the header spellings seen in the
// wild. Comparison happens on the folded form (lowercase, alphanumerics only).
var headerSynonyms = map[string][]string{
	"name":     {"name", "full name", "fullname", "employee name", "employee"},
	"email":    {"email", "e-mail", "email address", "work email", "mail"},
	"company":  {"company", "company name", "organization", "organisation", "employer"},
	"position": {"position", "title", "job title", "role", "job role", "designation"},
	"contact":  {"contact", "contact number", "phone", "phone number", "mobile", "telephone"},
}

// columnMap resolves header cells to column indexes for the canonical fields.
type columnMap map[string]int

// mapHeader matches each header cell against the synonym table. The name and
// email columns are mandatory; everything else is optional.
func mapHeader(header []string) (columnMap, error) {
	folded := make(map[string]int, len(header))
	for i, cell := range header {
		key := foldHeader(cell)
		if key == "" {
			continue
		}
		if _, seen := folded[key]; !seen {
			folded[key] = i
		}
	}

	cols := columnMap{}
	for field, synonyms := range headerSynonyms {
		for _, syn := range synonyms {
			if idx, ok := folded[foldHeader(syn)]; ok {
				cols[field] = idx
				break
			}
		}
	}

	if _, ok := cols["name"]; !ok {
		return nil, eris.New("ingest: no name column found in header")
	}
	if _, ok := cols["email"]; !ok {
		return nil, eris.New("ingest: no email column found in header")
	}
	return cols, nil
}

func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c columnMap) cell(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// buildRecords converts data rows into records. Rows without a name or a
// plausible email address are skipped rather than failing the upload; record
// ids are assigned sequentially over the rows that survive.
func buildRecords(header []string, rows [][]string) ([]model.Record, *Report, error) {
	cols, err := mapHeader(header)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{TotalRows: len(rows)}
	var records []model.Record
	for _, row := range rows {
		name := cols.cell(row, "name")
		email := cols.cell(row, "email")
		if name == "" || !strings.Contains(email, "@") {
			report.SkippedRows++
			continue
		}

		company := cols.cell(row, "company")
		if company == "" {
			company = DefaultCompany
		}
		position := cols.cell(row, "position")
		if position == "" {
			position = DefaultPosition
		}

		records = append(records, model.Record{
			ID:       fmt.Sprintf("emp_%d", len(records)+1),
			Name:     name,
			Email:    email,
			Company:  company,
			Position: position,
			Contact:  cols.cell(row, "contact"),
		})
	}

	report.Imported = len(records)
	return records, report, nil
}

// Parse decodes uploaded spreadsheet content by file extension.
func Parse(fileName string, data []byte) ([]model.Record, *Report, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	case ".xlsx":
		return ParseXLSXBytes(data)
	default:
		return nil, nil, eris.Errorf("ingest: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(fileName))
	}
}
