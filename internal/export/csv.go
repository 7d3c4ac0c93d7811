// Package export renders batch results as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Placeholders used when the external source returned nothing for a record.
const (
	notFound      = "Not found"
	notApplicable = "N/A"
)

var header = []string{
	"Name", "Email", "Company", "Position",
	"Status", "Match Count", "LinkedIn",
	"Verified Name", "Verified Email", "Verified Company", "Verified Position",
}

// Options narrows the export to one outcome tier. An empty Status exports
// every resolved record.
type Options struct {
	Status model.OutcomeStatus
}

// ParseStatusFilter validates a tier query value. Empty input means no filter.
func ParseStatusFilter(s string) (model.OutcomeStatus, error) {
	switch model.OutcomeStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case model.StatusExact:
		return model.StatusExact, nil
	case model.StatusPartial:
		return model.StatusPartial, nil
	case model.StatusInvalid:
		return model.StatusInvalid, nil
	case model.StatusNotProcessed:
		return model.StatusNotProcessed, nil
	default:
		return "", eris.Errorf("export: unknown status filter %q", s)
	}
}

// WriteCSV writes the batch's resolved outcomes in input order. Records still
// pending are omitted; a status filter keeps only the matching tier.
func WriteCSV(w io.Writer, b *model.Batch, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, outcome := range b.Outcomes {
		if outcome == nil {
			continue
		}
		if opts.Status != "" && outcome.Status != opts.Status {
			continue
		}
		if err := cw.Write(outcomeRow(outcome)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// FileName derives the download name from the uploaded file's base name.
func FileName(b *model.Batch, opts Options) string {
	base := strings.TrimSuffix(b.FileName, ".csv")
	base = strings.TrimSuffix(base, ".xlsx")
	if base == "" {
		base = b.ID
	}
	if opts.Status != "" {
		return fmt.Sprintf("%s_enriched_%s.csv", base, opts.Status)
	}
	return fmt.Sprintf("%s_enriched.csv", base)
}

func outcomeRow(o *model.Outcome) []string {
	linkedIn := o.LinkedInURL
	if linkedIn == "" {
		linkedIn = notApplicable
	}

	verifiedName, verifiedEmail := notFound, notFound
	verifiedCompany, verifiedPosition := notFound, notFound
	if p := o.Profile; p != nil {
		verifiedName = orNotFound(p.VerifiedName)
		verifiedEmail = orNotFound(p.VerifiedEmail)
		verifiedCompany = orNotFound(p.VerifiedCompany)
		verifiedPosition = orNotFound(p.VerifiedPosition)
	}

	return []string{
		o.Record.Name, o.Record.Email, o.Record.Company, o.Record.Position,
		string(o.Status), fmt.Sprintf("%d", o.MatchCount), linkedIn,
		verifiedName, verifiedEmail, verifiedCompany, verifiedPosition,
	}
}

func orNotFound(s string) string {
	if s == "" {
		return notFound
	}
	return s
}
