package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/enrich-cli/internal/model"
)

func testScorer() *Scorer {
	return NewScorer(NewMatcher(DefaultVocab()), DefaultThresholds())
}

func TestScorer_AllFourFieldsExact(t *testing.T) {
	rec := model.Record{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		Company:  "Acme",
		Position: "Engineer",
	}
	profile := model.CandidateProfile{
		VerifiedName:     "Jane Doe",
		VerifiedEmail:    "jane@x.com",
		VerifiedCompany:  "Acme Inc.",
		VerifiedPosition: "Senior Engineer",
	}

	res := testScorer().Score(rec, profile)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, model.TierExact, res.Tier)
	assert.Equal(t, model.FieldMatches{Name: true, Email: true, Company: true, Position: true}, res.Matches)
}

func TestScorer_EmailOnlyIsInvalid(t *testing.T) {
	rec := model.Record{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		Company:  "Acme",
		Position: "Engineer",
	}
	profile := model.CandidateProfile{
		VerifiedName:     "Robert Roe",
		VerifiedEmail:    "jane@x.com",
		VerifiedCompany:  "Zenith",
		VerifiedPosition: "Accountant",
	}

	res := testScorer().Score(rec, profile)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, model.TierInvalid, res.Tier)
	assert.True(t, res.Matches.Email)
	assert.False(t, res.Matches.Name)
}

func TestScorer_ThreeFieldsIsPartial(t *testing.T) {
	rec := model.Record{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		Company:  "Acme",
		Position: "Engineer",
	}
	profile := model.CandidateProfile{
		VerifiedName:     "Doe Jane",
		VerifiedEmail:    "jane@x.com",
		VerifiedCompany:  "Acme Corp",
		VerifiedPosition: "Accountant",
	}

	res := testScorer().Score(rec, profile)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, model.TierPartial, res.Tier)
	assert.False(t, res.Matches.Position)
}

func TestScorer_TierForIsMonotonic(t *testing.T) {
	s := testScorer()

	want := []model.Tier{
		model.TierInvalid, // 0
		model.TierInvalid, // 1
		model.TierPartial, // 2
		model.TierPartial, // 3
		model.TierExact,   // 4
	}
	for count, tier := range want {
		assert.Equal(t, tier, s.TierFor(count), "count=%d", count)
	}
}

func TestScorer_CustomThresholds(t *testing.T) {
	s := NewScorer(NewMatcher(DefaultVocab()), Thresholds{Exact: 3, Partial: 1})

	assert.Equal(t, model.TierExact, s.TierFor(3))
	assert.Equal(t, model.TierPartial, s.TierFor(1))
	assert.Equal(t, model.TierInvalid, s.TierFor(0))
}

func TestScorer_ZeroThresholdsFallBackToDefaults(t *testing.T) {
	s := NewScorer(NewMatcher(DefaultVocab()), Thresholds{})
	assert.Equal(t, model.TierPartial, s.TierFor(2))
	assert.Equal(t, model.TierInvalid, s.TierFor(1))
}
