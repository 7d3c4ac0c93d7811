package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(NewTransientError(errors.New("rate limited"), 429)))
	assert.True(t, IsTransient(fmt.Errorf("lookup: %w", NewTransientError(errors.New("502"), 502))), "wrapped transient")
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")), "network pattern heuristic")
	assert.False(t, IsTransient(errors.New("invalid request")))
}

func TestIsTransient_FatalIsNeverTransient(t *testing.T) {
	fatal := NewFatalError(errors.New("authentication failed"), 401)
	assert.False(t, IsTransient(fatal))
	assert.False(t, IsTransient(fmt.Errorf("lookup: %w", fatal)))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("boom")))
	assert.True(t, IsFatal(NewFatalError(errors.New("forbidden"), 403)))
	assert.True(t, IsFatal(fmt.Errorf("resolve: %w", NewFatalError(errors.New("bad key"), 401))))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 204, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
