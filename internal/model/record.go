package model

import "time"

// Tier is the confidence classification of an enrichment match.
type Tier string

const (
	TierExact   Tier = "exact"
	TierPartial Tier = "partial"
	TierInvalid Tier = "invalid"
)

// OutcomeStatus is the resolution state of a single record. It extends Tier
// with the terminal "not_processed" state used when a run is aborted before
// the record was looked up.
type OutcomeStatus string

const (
	StatusExact        OutcomeStatus = "exact"
	StatusPartial      OutcomeStatus = "partial"
	StatusInvalid      OutcomeStatus = "invalid"
	StatusNotProcessed OutcomeStatus = "not_processed"
)

// Record is one input row from an uploaded spreadsheet. It is the ground
// truth side of every comparison and is never mutated after ingestion.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Contact  string `json:"contact,omitempty"`
}

// CandidateProfile is the external source's view of a person, derived from
// one lookup response. Owned by the outcome that references it.
type CandidateProfile struct {
	VerifiedName     string   `json:"verified_name"`
	VerifiedEmail    string   `json:"verified_email"`
	VerifiedCompany  string   `json:"verified_company"`
	VerifiedPosition string   `json:"verified_position"`
	LinkedInVerified bool     `json:"linkedin_verified"`
	PhotoURL         string   `json:"photo_url,omitempty"`
	Headline         string   `json:"headline,omitempty"`
	Location         string   `json:"location,omitempty"`
	PhoneNumbers     []string `json:"phone_numbers,omitempty"`
}

// FieldMatches reports the per-field comparison results. All four fields are
// evaluated unconditionally so the breakdown is auditable.
type FieldMatches struct {
	Name     bool `json:"name"`
	Email    bool `json:"email"`
	Company  bool `json:"company"`
	Position bool `json:"position"`
}

// Count returns the number of matching fields.
func (m FieldMatches) Count() int {
	n := 0
	for _, ok := range []bool{m.Name, m.Email, m.Company, m.Position} {
		if ok {
			n++
		}
	}
	return n
}

// Outcome is the result of resolving one Record against the external source.
// Exactly one Outcome exists per Record by the time a batch completes.
type Outcome struct {
	Record      Record            `json:"record"`
	Status      OutcomeStatus     `json:"status"`
	MatchCount  int               `json:"match_count"`
	Matches     FieldMatches      `json:"matches"`
	Profile     *CandidateProfile `json:"profile,omitempty"`
	LinkedInURL string            `json:"linkedin_url,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
	// Error holds the last transient failure message when resolution
	// exhausted all strategies without a confirmed match.
	Error string `json:"error,omitempty"`
}
