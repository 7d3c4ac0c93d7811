package match

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Emails(t *testing.T) {
	m := NewMatcher(DefaultVocab())

	assert.True(t, m.Emails("jane@x.com", "jane@x.com"))
	assert.True(t, m.Emails(" Jane@X.COM ", "jane@x.com"), "case and whitespace insensitive")
	assert.False(t, m.Emails("jane@x.com", "jane@y.com"))
	assert.False(t, m.Emails("", ""), "empty emails never match")
	assert.False(t, m.Emails("jane+1@x.com", "jane@x.com"), "no fuzzy logic on emails")
}

func TestMatcher_Names(t *testing.T) {
	m := NewMatcher(DefaultVocab())

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "John Smith", "John Smith", true},
		{"order swap", "John Smith", "Smith John", true},
		{"comma convention", "Smith, John", "John Smith", true},
		{"middle name ignored", "John Q Smith", "John Smith", true},
		{"single token exact", "Al", "Al", true},
		{"single token prefix is not a match", "Al", "Ally", false},
		{"single vs multi token", "Smith", "John Smith", false},
		{"different people", "John Smith", "Jane Doe", false},
		{"empty left", "", "John Smith", false},
		{"empty right", "John Smith", "", false},
		{"case and punctuation", "john SMITH", "Smith, John", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Names(tt.a, tt.b))
		})
	}
}

func TestMatcher_Companies(t *testing.T) {
	m := NewMatcher(DefaultVocab())

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "Acme", "Acme", true},
		{"suffix stripped", "Acme Inc.", "Acme", true},
		{"multiple suffixes", "Acme Solutions Inc", "Acme", true},
		{"substring containment", "Acme Widgets", "Acme", true},
		{"different companies", "Acme", "Zenith", false},
		{"suffix only on both sides", "Inc", "Inc", true},
		{"empty", "", "Acme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Companies(tt.a, tt.b))
		})
	}
}

func TestMatcher_Companies_SuffixOnlyCore(t *testing.T) {
	m := NewMatcher(DefaultVocab())

	// When stripping leaves an empty core on one side, only exact normalized
	// equality can match.
	assert.False(t, m.Companies("Inc", "Acme Inc"))
}

func TestMatcher_Positions(t *testing.T) {
	m := NewMatcher(DefaultVocab())

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "Engineer", "Engineer", true},
		{"seniority stripped", "Senior Engineer", "Engineer", true},
		{"both sides stripped", "Lead Engineer", "Principal Engineer", true},
		{"substring containment", "Software Engineer", "Engineer", true},
		{"different roles", "Engineer", "Accountant", false},
		{"empty", "", "Engineer", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Positions(tt.a, tt.b))
		})
	}
}

func TestLoadVocab(t *testing.T) {
	path := t.TempDir() + "/vocab.yaml"
	require.NoError(t, os.WriteFile(path, []byte("corporate_suffixes: [gmbh, ag]\n"), 0o644))

	v, err := LoadVocab(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gmbh", "ag"}, v.CorporateSuffixes)
	assert.Equal(t, DefaultVocab().SeniorityTokens, v.SeniorityTokens, "missing list falls back to defaults")

	m := NewMatcher(v)
	assert.True(t, m.Companies("Siemens AG", "Siemens"))
	assert.False(t, m.Companies("Acme Inc", "Acme"), "default suffixes replaced, not merged")
}

func TestLoadVocab_MissingFile(t *testing.T) {
	_, err := LoadVocab("/does/not/exist.yaml")
	require.Error(t, err)
}
