// Package apollo provides access to the Apollo people-match API with a
// per-minute request budget and fault classification at the client boundary.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrich-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://api.apollo.io"
	defaultBudget  = 100 // requests per rolling minute
)

// Client performs person lookups against the external people-data source.
// Both lookups return (nil, nil) when the source has no record; errors are
// classified as transient or fatal via the resilience package.
type Client interface {
	// MatchByEmail looks up a person by their email address.
	MatchByEmail(ctx context.Context, email string) (*Person, error)

	// MatchByNameAndDomain looks up a person by full name at a company domain.
	MatchByNameAndDomain(ctx context.Context, name, domain string) (*Person, error)

	// Healthcheck verifies that the API is reachable and the key is accepted.
	Healthcheck(ctx context.Context) error
}

// Person is the raw person payload from POST /api/v1/people/match.
type Person struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Title        string        `json:"title"`
	LinkedInURL  string        `json:"linkedin_url,omitempty"`
	PhotoURL     string        `json:"photo_url,omitempty"`
	Headline     string        `json:"headline,omitempty"`
	City         string        `json:"city,omitempty"`
	State        string        `json:"state,omitempty"`
	Country      string        `json:"country,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers,omitempty"`
}

// FullName returns the person's display name, assembling it from the name
// parts when the combined field is absent.
func (p *Person) FullName() string {
	if p.Name != "" {
		return p.Name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CompanyName returns the person's current organization name, if any.
func (p *Person) CompanyName() string {
	if p.Organization == nil {
		return ""
	}
	return p.Organization.Name
}

// Organization is the employer block nested in a person response.
type Organization struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url,omitempty"`
}

// PhoneNumber is a single phone entry in a person response.
type PhoneNumber struct {
	RawNumber       string `json:"raw_number"`
	SanitizedNumber string `json:"sanitized_number"`
	Type            string `json:"type"`
}

type matchRequest struct {
	Email                string `json:"email,omitempty"`
	Name                 string `json:"name,omitempty"`
	Domain               string `json:"domain,omitempty"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails"`
}

type matchResponse struct {
	Person *Person `json:"person"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRequestBudget sets the number of requests allowed per rolling
// 60-second window. Calls beyond the budget block until the window refills.
func WithRequestBudget(perMinute int) Option {
	return func(c *httpClient) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(float64(defaultBudget)/60.0), defaultBudget),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) MatchByEmail(ctx context.Context, email string) (*Person, error) {
	return c.match(ctx, matchRequest{Email: email})
}

func (c *httpClient) MatchByNameAndDomain(ctx context.Context, name, domain string) (*Person, error) {
	return c.match(ctx, matchRequest{Name: name, Domain: domain})
}

func (c *httpClient) match(ctx context.Context, req matchRequest) (*Person, error) {
	body, status, err := c.post(ctx, "/api/v1/people/match", req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, nil
	}

	var result matchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "apollo: unmarshal match response"), status)
	}

	return result.Person, nil
}

func (c *httpClient) Healthcheck(ctx context.Context) error {
	_, _, err := c.post(ctx, "/api/v1/auth/health", struct{}{})
	return err
}

// post sends a request under the rate budget and classifies failures. The
// returned status is only meaningful when err is nil.
func (c *httpClient) post(ctx context.Context, endpoint string, payload any) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "apollo: rate budget wait")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, resilience.NewTransientError(eris.Wrap(err, "apollo: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, resilience.NewTransientError(eris.Wrap(err, "apollo: read response"), resp.StatusCode)
	}

	if err := classify(resp, respBody); err != nil {
		return nil, 0, err
	}

	return respBody, resp.StatusCode, nil
}

// classify maps a response to the fault taxonomy. An HTML body is an
// authentication or endpoint error surfaced as a login page, and will recur
// on every subsequent call, so it is fatal like 401/403.
func classify(resp *http.Response, body []byte) error {
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return resilience.NewFatalError(
			eris.Errorf("apollo: HTML response (status %d), check API key", resp.StatusCode),
			resp.StatusCode,
		)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resilience.NewFatalError(
			eris.Errorf("apollo: authentication failed (status %d)", resp.StatusCode),
			resp.StatusCode,
		)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(
			eris.Errorf("apollo: status %d: %s", resp.StatusCode, truncate(body, 200)),
			resp.StatusCode,
		)
	default:
		return resilience.NewTransientError(
			eris.Errorf("apollo: unexpected status %d: %s", resp.StatusCode, truncate(body, 200)),
			resp.StatusCode,
		)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
