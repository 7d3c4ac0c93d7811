// Package enrich resolves input records against the external people-data
// source and drives whole-batch analysis runs.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

// Resolver turns one input record into an enrichment outcome by querying the
// external source through an ordered strategy waterfall: direct email match
// first, then name + email domain.
type Resolver struct {
	client apollo.Client
	scorer *match.Scorer
	retry  resilience.RetryConfig
}

// NewResolver creates a Resolver.
func NewResolver(client apollo.Client, scorer *match.Scorer, retry resilience.RetryConfig) *Resolver {
	return &Resolver{client: client, scorer: scorer, retry: retry}
}

// Resolve produces the outcome for a single record. Per-record conditions
// (no match, transient lookup failures) are absorbed into the outcome; the
// returned error is non-nil only for fatal faults or context cancellation,
// which must halt the whole run.
func (r *Resolver) Resolve(ctx context.Context, rec model.Record) (*model.Outcome, error) {
	log := zap.L().With(zap.String("record", rec.ID), zap.String("email", rec.Email))

	var person *apollo.Person
	var lastTransient string

	// Strategy 1: direct email match.
	p, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*apollo.Person, error) {
		return r.client.MatchByEmail(ctx, rec.Email)
	})
	switch {
	case err == nil:
		person = p
	case resilience.IsFatal(err):
		return nil, err
	default:
		lastTransient = err.Error()
		log.Debug("email lookup failed", zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Strategy 2: name + domain, only when the email carries a host part.
	if person == nil {
		if domain := emailDomain(rec.Email); domain != "" {
			p, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*apollo.Person, error) {
				return r.client.MatchByNameAndDomain(ctx, rec.Name, domain)
			})
			switch {
			case err == nil:
				person = p
			case resilience.IsFatal(err):
				return nil, err
			default:
				lastTransient = err.Error()
				log.Debug("name+domain lookup failed", zap.String("domain", domain), zap.Error(err))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if person == nil {
		msg := lastTransient
		if msg == "" {
			msg = "no match in external source"
		}
		return &model.Outcome{
			Record:      rec,
			Status:      model.StatusInvalid,
			ProcessedAt: now,
			Error:       msg,
		}, nil
	}

	profile := buildProfile(person)
	res := r.scorer.Score(rec, profile)

	log.Debug("record scored",
		zap.Int("match_count", res.Count),
		zap.String("tier", string(res.Tier)),
	)

	return &model.Outcome{
		Record:      rec,
		Status:      model.OutcomeStatus(res.Tier),
		MatchCount:  res.Count,
		Matches:     res.Matches,
		Profile:     &profile,
		LinkedInURL: person.LinkedInURL,
		ProcessedAt: now,
	}, nil
}

// buildProfile derives the comparable profile from a raw person response.
func buildProfile(p *apollo.Person) model.CandidateProfile {
	var locationParts []string
	for _, part := range []string{p.City, p.State, p.Country} {
		if part != "" {
			locationParts = append(locationParts, part)
		}
	}

	var phones []string
	for _, pn := range p.PhoneNumbers {
		if pn.RawNumber != "" {
			phones = append(phones, pn.RawNumber)
		}
	}

	return model.CandidateProfile{
		VerifiedName:     p.FullName(),
		VerifiedEmail:    p.Email,
		VerifiedCompany:  p.CompanyName(),
		VerifiedPosition: p.Title,
		LinkedInVerified: p.LinkedInURL != "",
		PhotoURL:         p.PhotoURL,
		Headline:         p.Headline,
		Location:         strings.Join(locationParts, ", "),
		PhoneNumbers:     phones,
	}
}

// emailDomain extracts the host part of an email address, or "" if absent.
func emailDomain(email string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok {
		return ""
	}
	return domain
}
