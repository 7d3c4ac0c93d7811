package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Vocab holds the token vocabularies stripped before core comparison.
// The defaults mirror the variance actually seen in enrichment responses;
// deployments can extend them via a YAML file.
type Vocab struct {
	CorporateSuffixes []string `yaml:"corporate_suffixes"`
	SeniorityTokens   []string `yaml:"seniority_tokens"`
}

// DefaultVocab returns the built-in vocabularies.
func DefaultVocab() Vocab {
	return Vocab{
		CorporateSuffixes: []string{
			"inc", "corp", "llc", "ltd", "company", "co", "solutions",
			"technologies", "tech", "systems", "group", "corporation",
		},
		SeniorityTokens: []string{
			"junior", "senior", "lead", "principal", "staff", "sr", "jr",
			"chief", "head", "director", "executive",
		},
	}
}

// LoadVocab reads a vocabulary override from a YAML file. Lists absent from
// the file fall back to the defaults.
func LoadVocab(path string) (Vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocab{}, eris.Wrapf(err, "match: read vocab %s", path)
	}

	var v Vocab
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocab{}, eris.Wrap(err, "match: parse vocab")
	}

	def := DefaultVocab()
	if len(v.CorporateSuffixes) == 0 {
		v.CorporateSuffixes = def.CorporateSuffixes
	}
	if len(v.SeniorityTokens) == 0 {
		v.SeniorityTokens = def.SeniorityTokens
	}
	return v, nil
}
