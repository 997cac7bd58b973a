package core

import (
	"context"
	"net/url"
)

// Backend is the narrow transport surface the core depends on. The concrete
// client lives in internal/youtrack; tests substitute a fake. Implementations
// surface HTTP-style status semantics in returned errors, which Classify
// pattern-matches to sort failures.
type Backend interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}
