package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRecordBatch() *Batch {
	return NewBatch("b1", "employees.csv", []Record{
		{ID: "emp_1", Name: "Jane Doe", Email: "jane@acme.com"},
		{ID: "emp_2", Name: "John Roe", Email: "john@acme.com"},
	})
}

func TestNewBatch(t *testing.T) {
	b := twoRecordBatch()

	assert.Equal(t, BatchStatusUploaded, b.Status)
	assert.Len(t, b.Outcomes, 2)
	assert.Nil(t, b.Outcomes[0])
	assert.False(t, b.CreatedAt.IsZero())
	assert.Nil(t, b.StartedAt)
}

func TestBatchStatusTerminal(t *testing.T) {
	assert.False(t, BatchStatusUploaded.Terminal())
	assert.False(t, BatchStatusAnalyzing.Terminal())
	assert.True(t, BatchStatusCompleted.Terminal())
	assert.True(t, BatchStatusFailed.Terminal())
}

func TestBatchCounts(t *testing.T) {
	b := NewBatch("b1", "f.csv", make([]Record, 4))
	b.Outcomes[0] = &Outcome{Status: StatusExact}
	b.Outcomes[1] = &Outcome{Status: StatusPartial}
	b.Outcomes[2] = &Outcome{Status: StatusNotProcessed}

	c := b.Counts()
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 1, c.Pending)
	assert.Equal(t, 1, c.Exact)
	assert.Equal(t, 1, c.Partial)
	assert.Equal(t, 0, c.Invalid)
	assert.Equal(t, 1, c.NotProcessed)
}

func TestBatchProgress(t *testing.T) {
	b := NewBatch("b1", "f.csv", make([]Record, 4))
	assert.Equal(t, 0, b.Progress())

	b.Outcomes[0] = &Outcome{Status: StatusExact}
	assert.Equal(t, 25, b.Progress())

	for i := range b.Outcomes {
		b.Outcomes[i] = &Outcome{Status: StatusInvalid}
	}
	assert.Equal(t, 100, b.Progress())
}

func TestBatchProgressEmpty(t *testing.T) {
	b := NewBatch("b1", "f.csv", nil)
	assert.Equal(t, 100, b.Progress())
}

func TestBatchClone(t *testing.T) {
	b := twoRecordBatch()
	now := time.Now().UTC()
	b.StartedAt = &now
	b.Outcomes[0] = &Outcome{
		Record:  b.Records[0],
		Status:  StatusExact,
		Profile: &CandidateProfile{VerifiedName: "Jane Doe", PhoneNumbers: []string{"+1-555-0100"}},
	}

	cp := b.Clone()
	require.NotSame(t, b, cp)

	// Mutations on the clone must not reach the original.
	cp.Records[0].Name = "Changed"
	cp.Outcomes[0].Profile.VerifiedName = "Changed"
	cp.Outcomes[0].Profile.PhoneNumbers[0] = "changed"
	*cp.StartedAt = cp.StartedAt.Add(time.Hour)

	assert.Equal(t, "Jane Doe", b.Records[0].Name)
	assert.Equal(t, "Jane Doe", b.Outcomes[0].Profile.VerifiedName)
	assert.Equal(t, "+1-555-0100", b.Outcomes[0].Profile.PhoneNumbers[0])
	assert.True(t, b.StartedAt.Equal(now))
}

func TestFieldMatchesCount(t *testing.T) {
	assert.Equal(t, 0, FieldMatches{}.Count())
	assert.Equal(t, 2, FieldMatches{Email: true, Company: true}.Count())
	assert.Equal(t, 4, FieldMatches{Name: true, Email: true, Company: true, Position: true}.Count())
}
