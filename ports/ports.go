// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and core/.
package ports

import (
	"context"
	"net/http"
)

// -----------------------------------------------------------------------------
// Validation Ports
// -----------------------------------------------------------------------------

// Issue describes a single validation violation.
type Issue struct {
	// Path locates the offending value, one element per nesting level.
	Path []string `json:"path"`

	// Message is a human-readable description of the violation.
	Message string `json:"message"`
}

// ParseResult is the outcome of checking a value against a validator.
// On success Data holds the canonical value; on failure Issues holds one
// entry per violated constraint.
type ParseResult struct {
	OK     bool
	Data   any
	Issues []Issue
}

// Validator checks a decoded wire value. Implementations must be safe for
// concurrent use; the dispatchers call SafeParse on every request.
type Validator interface {
	SafeParse(value any) ParseResult
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(value any) ParseResult

// SafeParse calls f(value).
func (f ValidatorFunc) SafeParse(value any) ParseResult { return f(value) }

// -----------------------------------------------------------------------------
// Wire Encoding Ports
// -----------------------------------------------------------------------------

// Transformer encodes values to wire text and back. Serialize and
// Deserialize must be mutual inverses for every value the application
// sends.
type Transformer interface {
	// Serialize encodes a value as wire text.
	Serialize(value any) (string, error)

	// Deserialize decodes wire text back into a value.
	Deserialize(text string) (any, error)

	// ContentType is the media type advertised for request bodies.
	ContentType() string
}

// -----------------------------------------------------------------------------
// Transport Ports
// -----------------------------------------------------------------------------

// Request is a single outbound HTTP request (value type).
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the result of a fetch (value type).
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Fetcher sends one HTTP request and returns the full response.
// Cancellation, timeouts, and connection pooling are the implementation's
// concern; the dispatchers never retry.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// -----------------------------------------------------------------------------
// Server Collaborator Ports
// -----------------------------------------------------------------------------

// MetadataResolver produces out-of-band per-request context (identity,
// tenant, trace state) for handlers. Returning nil metadata with no error
// means resolution found nothing; the dispatcher decides whether that is
// acceptable based on the endpoint declaration.
type MetadataResolver interface {
	Resolve(r *http.Request, required bool) (any, error)
}

// MetadataResolverFunc adapts a plain function to MetadataResolver.
type MetadataResolverFunc func(r *http.Request, required bool) (any, error)

// Resolve calls f(r, required).
func (f MetadataResolverFunc) Resolve(r *http.Request, required bool) (any, error) {
	return f(r, required)
}

// -----------------------------------------------------------------------------
// Client Collaborator Ports
// -----------------------------------------------------------------------------

// Interceptor observes every client response after it is received and
// before its body is interpreted, exactly once per call unless the call
// opts out. callCtx is the opaque per-call value supplied by the issuer.
// A non-nil error fails the call.
type Interceptor func(ctx context.Context, verb, path string, res *Response, callCtx any) error
