package match

import "github.com/sells-group/enrich-cli/internal/model"

// Thresholds maps a field match count to a tier. Count >= Exact is an exact
// match, count >= Partial is partial, anything below is invalid.
type Thresholds struct {
	Exact   int `yaml:"exact" mapstructure:"exact"`
	Partial int `yaml:"partial" mapstructure:"partial"`
}

// DefaultThresholds returns the production mapping: 4 of 4 fields for exact,
// 2 or 3 for partial.
func DefaultThresholds() Thresholds {
	return Thresholds{Exact: 4, Partial: 2}
}

// Result is the outcome of scoring one record against one candidate profile.
type Result struct {
	Matches model.FieldMatches
	Count   int
	Tier    model.Tier
}

// Scorer aggregates the four field matchers into a count and a tier.
type Scorer struct {
	matcher    *Matcher
	thresholds Thresholds
}

// NewScorer creates a Scorer. Zero thresholds fall back to the defaults.
func NewScorer(matcher *Matcher, thresholds Thresholds) *Scorer {
	if thresholds.Exact == 0 && thresholds.Partial == 0 {
		thresholds = DefaultThresholds()
	}
	return &Scorer{matcher: matcher, thresholds: thresholds}
}

// Score evaluates all four matchers unconditionally so every field's match
// status is reported, sums the hits, and maps the count to a tier.
func (s *Scorer) Score(rec model.Record, p model.CandidateProfile) Result {
	matches := model.FieldMatches{
		Name:     s.matcher.Names(rec.Name, p.VerifiedName),
		Email:    s.matcher.Emails(rec.Email, p.VerifiedEmail),
		Company:  s.matcher.Companies(rec.Company, p.VerifiedCompany),
		Position: s.matcher.Positions(rec.Position, p.VerifiedPosition),
	}

	count := matches.Count()
	return Result{
		Matches: matches,
		Count:   count,
		Tier:    s.TierFor(count),
	}
}

// TierFor maps a match count to a tier. The mapping is monotonic in count.
func (s *Scorer) TierFor(count int) model.Tier {
	switch {
	case count >= s.thresholds.Exact:
		return model.TierExact
	case count >= s.thresholds.Partial:
		return model.TierPartial
	default:
		return model.TierInvalid
	}
}
