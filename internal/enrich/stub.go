package enrich

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

// StubSource is a keyless stand-in for the external source. Each record's
// scenario (exact echo, varied fields, or no match) is a deterministic
// function of a stable hash of the record's own fields, so repeated runs
// over the same input are reproducible.
type StubSource struct {
	byEmail      map[string]model.Record
	byNameDomain map[string]model.Record
}

var _ apollo.Client = (*StubSource)(nil)

// NewStubSource builds a stub over the batch's own records.
func NewStubSource(records []model.Record) *StubSource {
	s := &StubSource{
		byEmail:      make(map[string]model.Record, len(records)),
		byNameDomain: make(map[string]model.Record, len(records)),
	}
	for _, rec := range records {
		s.byEmail[strings.ToLower(strings.TrimSpace(rec.Email))] = rec
		if domain := emailDomain(rec.Email); domain != "" {
			s.byNameDomain[nameDomainKey(rec.Name, domain)] = rec
		}
	}
	return s
}

func (s *StubSource) MatchByEmail(_ context.Context, email string) (*apollo.Person, error) {
	rec, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return s.respond(rec), nil
}

func (s *StubSource) MatchByNameAndDomain(_ context.Context, name, domain string) (*apollo.Person, error) {
	rec, ok := s.byNameDomain[nameDomainKey(name, domain)]
	if !ok {
		return nil, nil
	}
	return s.respond(rec), nil
}

func (s *StubSource) Healthcheck(context.Context) error {
	return nil
}

func (s *StubSource) respond(rec model.Record) *apollo.Person {
	h := stableHash(rec.Email + rec.Name + rec.Company)

	switch h % 3 {
	case 0: // exact match scenario
		return &apollo.Person{
			Name:         rec.Name,
			Email:        rec.Email,
			Title:        rec.Position,
			Organization: &apollo.Organization{Name: rec.Company},
			LinkedInURL:  stubLinkedInURL(rec.Name, h),
			Headline:     fmt.Sprintf("%s at %s", rec.Position, rec.Company),
			City:         "New York",
			State:        "NY",
			PhoneNumbers: []apollo.PhoneNumber{
				{RawNumber: fmt.Sprintf("+1-555-%04d", h%10000)},
			},
		}
	case 1: // partial match scenario
		p := &apollo.Person{
			Name:         varyName(rec.Name),
			Email:        rec.Email,
			Title:        varyPosition(rec.Position, h),
			Organization: &apollo.Organization{Name: varyCompany(rec.Company, h)},
			Headline:     fmt.Sprintf("Professional at %s", varyCompany(rec.Company, h)),
			City:         "San Francisco",
			State:        "CA",
		}
		if h%2 == 0 {
			p.LinkedInURL = stubLinkedInURL(rec.Name, h)
		}
		return p
	default: // no match scenario
		return nil
	}
}

func nameDomainKey(name, domain string) string {
	return match.Normalize(name) + "|" + strings.ToLower(strings.TrimSpace(domain))
}

// stableHash is FNV-1a over the record's identity fields.
func stableHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func stubLinkedInURL(name string, h uint32) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	return fmt.Sprintf("https://linkedin.com/in/%s-%d", slug, h%1000)
}

// varyName abbreviates the last name to an initial ("Jane Doe" -> "Jane D."),
// which fails the name matcher and caps the scenario at a partial tier.
func varyName(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return name
	}
	initial := []rune(tokens[len(tokens)-1])[0]
	return strings.Join(tokens[:len(tokens)-1], " ") + " " + string(initial) + "."
}

var companySuffixes = []string{"Inc.", "Corp.", "LLC", "Ltd.", "Technologies", "Solutions"}

func varyCompany(company string, h uint32) string {
	return company + " " + companySuffixes[h%uint32(len(companySuffixes))]
}

var seniorityPrefixes = []string{"Senior", "Lead", "Principal", "Staff", "Junior"}

func varyPosition(position string, h uint32) string {
	return seniorityPrefixes[h%uint32(len(seniorityPrefixes))] + " " + position
}
