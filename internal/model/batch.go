package model

import "time"

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusUploaded  BatchStatus = "uploaded"
	BatchStatusAnalyzing BatchStatus = "analyzing"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// Counts holds derived aggregate totals for a batch.
type Counts struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Exact        int `json:"exact"`
	Partial      int `json:"partial"`
	Invalid      int `json:"invalid"`
	NotProcessed int `json:"not_processed"`
}

// Batch is one uploaded set of records processed together. Outcomes is
// parallel to Records: Outcomes[i] is nil until Records[i] has been resolved.
type Batch struct {
	ID          string      `json:"id"`
	FileName    string      `json:"file_name"`
	Status      BatchStatus `json:"status"`
	Records     []Record    `json:"records"`
	Outcomes    []*Outcome  `json:"outcomes"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// NewBatch creates a batch in the uploaded state with one outcome slot per record.
func NewBatch(id, fileName string, records []Record) *Batch {
	return &Batch{
		ID:        id,
		FileName:  fileName,
		Status:    BatchStatusUploaded,
		Records:   records,
		Outcomes:  make([]*Outcome, len(records)),
		CreatedAt: time.Now().UTC(),
	}
}

// Counts derives aggregate totals from the current outcome slots.
func (b *Batch) Counts() Counts {
	c := Counts{Total: len(b.Records)}
	for _, o := range b.Outcomes {
		if o == nil {
			c.Pending++
			continue
		}
		switch o.Status {
		case StatusExact:
			c.Exact++
		case StatusPartial:
			c.Partial++
		case StatusInvalid:
			c.Invalid++
		case StatusNotProcessed:
			c.NotProcessed++
		}
	}
	return c
}

// Progress returns the processed percentage, 0-100. An empty batch is 100%.
func (b *Batch) Progress() int {
	if len(b.Records) == 0 {
		return 100
	}
	c := b.Counts()
	processed := c.Total - c.Pending
	return processed * 100 / c.Total
}

// Clone returns a deep copy, so concurrent readers never observe a
// partially written outcome.
func (b *Batch) Clone() *Batch {
	cp := *b
	cp.Records = make([]Record, len(b.Records))
	copy(cp.Records, b.Records)
	cp.Outcomes = make([]*Outcome, len(b.Outcomes))
	for i, o := range b.Outcomes {
		if o == nil {
			continue
		}
		oc := *o
		if o.Profile != nil {
			p := *o.Profile
			p.PhoneNumbers = append([]string(nil), o.Profile.PhoneNumbers...)
			oc.Profile = &p
		}
		cp.Outcomes[i] = &oc
	}
	if b.StartedAt != nil {
		t := *b.StartedAt
		cp.StartedAt = &t
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
