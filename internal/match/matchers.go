package match

import "strings"

// Matcher holds the comparison rules for the four identity fields. Each
// matcher is permissive toward organizational and title variance but strict
// toward genuine identity mismatch.
type Matcher struct {
	vocab Vocab
}

// NewMatcher creates a Matcher with the given vocabularies.
func NewMatcher(vocab Vocab) *Matcher {
	if len(vocab.CorporateSuffixes) == 0 && len(vocab.SeniorityTokens) == 0 {
		vocab = DefaultVocab()
	}
	return &Matcher{vocab: vocab}
}

// Emails compares two email addresses: case-insensitive, trimmed, exact.
// Email is an identifier, so there is deliberately no fuzzy logic here.
func (m *Matcher) Emails(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

// Names compares two person names. After normalization an exact match wins;
// otherwise multi-token names match on (first, last) token pairs allowing an
// order swap, which handles "Last, First" vs "First Last" conventions.
// Single-token names never match unless identical after normalization.
func (m *Matcher) Names(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	ta, tb := strings.Fields(na), strings.Fields(nb)
	if len(ta) < 2 || len(tb) < 2 {
		return false
	}

	firstA, lastA := ta[0], ta[len(ta)-1]
	firstB, lastB := tb[0], tb[len(tb)-1]

	return (firstA == firstB && lastA == lastB) ||
		(firstA == lastB && lastA == firstB)
}

// Companies compares two company names. Exact normalized equality
// short-circuits; otherwise corporate suffix tokens are stripped and the
// cores match on equality or substring containment, so "Acme" matches
// "Acme Solutions Inc".
func (m *Matcher) Companies(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	return coresMatch(stripTokens(na, m.vocab.CorporateSuffixes), stripTokens(nb, m.vocab.CorporateSuffixes))
}

// Positions compares two job titles, stripping seniority and level tokens
// before applying the same core-equality-or-substring rule as Companies, so
// "Senior Engineer" matches "Engineer".
func (m *Matcher) Positions(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	return coresMatch(stripTokens(na, m.vocab.SeniorityTokens), stripTokens(nb, m.vocab.SeniorityTokens))
}

// stripTokens removes whole-word occurrences of the vocabulary tokens from
// an already-normalized string.
func stripTokens(s string, tokens []string) string {
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}

	var kept []string
	for _, w := range strings.Fields(s) {
		if !drop[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// coresMatch applies the core comparison: equal, or either side contains the
// other. Containment intentionally biases toward false-positive-tolerant
// matching; the tier system downstream discounts partial agreement.
func coresMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
