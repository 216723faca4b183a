package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/ports"
)

// Caller issues requests against one endpoint. A caller is immutable and
// safe for concurrent use.
type Caller struct {
	client   *Client
	verb     schema.Verb
	path     string
	endpoint schema.Endpoint
}

// Verb returns the caller's bound verb.
func (cl *Caller) Verb() schema.Verb { return cl.verb }

// Path returns the caller's derived wire path.
func (cl *Caller) Path() string { return cl.path }

// callConfig holds per-call overrides.
type callConfig struct {
	fetcher         ports.Fetcher
	headers         map[string]string
	skipInterceptor bool
	callCtx         any
}

// CallOption customizes a single call.
type CallOption func(*callConfig)

// WithFetcher replaces the fetch capability for this call only.
func WithFetcher(f ports.Fetcher) CallOption {
	return func(cfg *callConfig) { cfg.fetcher = f }
}

// WithHeader sets a request header for this call, overriding the client's
// default headers on conflict.
func WithHeader(key, value string) CallOption {
	return func(cfg *callConfig) {
		if cfg.headers == nil {
			cfg.headers = make(map[string]string)
		}
		cfg.headers[key] = value
	}
}

// SkipInterceptor opts this call out of response interception.
func SkipInterceptor() CallOption {
	return func(cfg *callConfig) { cfg.skipInterceptor = true }
}

// WithCallContext attaches an opaque value that is handed to the
// interceptor alongside the response.
func WithCallContext(v any) CallOption {
	return func(cfg *callConfig) { cfg.callCtx = v }
}

// Do issues one call: build the request, send it, intercept the response,
// interpret the body. Exactly one fetch and at most one interceptor
// invocation happen per call; nothing is retried.
//
// input must be nil for endpoints declaring no input and non-nil for
// endpoints declaring one; violations fail before any network activity.
func (cl *Caller) Do(ctx context.Context, input any, opts ...CallOption) (any, error) {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fetcher == nil {
		cfg.fetcher = cl.client.fetcher
	}

	if cl.endpoint.Input.IsNone() {
		if input != nil {
			return nil, &ArgumentError{Verb: cl.verb, Path: cl.path, Reason: "endpoint takes no input"}
		}
	} else if input == nil {
		return nil, &ArgumentError{Verb: cl.verb, Path: cl.path, Reason: "input is required"}
	}

	headers := make(map[string]string, len(cl.client.headers)+len(cfg.headers))
	for k, v := range cl.client.headers {
		headers[k] = v
	}
	for k, v := range cfg.headers {
		headers[k] = v
	}

	target := cl.client.entrypoint + cl.path
	var body []byte

	if !cl.endpoint.Input.IsNone() {
		text, err := cl.client.transformer.Serialize(input)
		if err != nil {
			return nil, fmt.Errorf("client: serialize input for %s %s: %w", cl.verb, cl.path, err)
		}
		if cl.verb == schema.Get {
			// GET carries the payload in the reserved query parameter.
			target += "?" + schema.BodyParam + "=" + url.QueryEscape(text)
		} else {
			body = []byte(text)
			headers["Content-Type"] = cl.client.transformer.ContentType()
		}
	}

	res, err := cfg.fetcher.Fetch(ctx, ports.Request{
		Method:  cl.verb.Method(),
		URL:     target,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", cl.verb, cl.path, err)
	}

	cl.client.logger.Debug().
		Str("verb", string(cl.verb)).
		Str("path", cl.path).
		Int("status", res.Status).
		Msg("call completed")

	if cl.client.interceptor != nil && !cfg.skipInterceptor {
		if err := cl.client.interceptor(ctx, string(cl.verb), cl.path, res, cfg.callCtx); err != nil {
			return nil, fmt.Errorf("client: interceptor for %s %s: %w", cl.verb, cl.path, err)
		}
	}

	if !res.OK() {
		desc := strings.TrimSpace(string(res.Body))
		if desc == "" {
			desc = http.StatusText(res.Status)
		}
		return nil, &TransportError{
			Verb:        cl.verb,
			Path:        cl.path,
			Status:      res.Status,
			Description: desc,
		}
	}

	if cl.endpoint.Output.IsNone() {
		return nil, nil
	}

	out, err := cl.client.transformer.Deserialize(string(res.Body))
	if err != nil {
		return nil, fmt.Errorf("client: deserialize response for %s %s: %w", cl.verb, cl.path, err)
	}
	return out, nil
}

// Call invokes a caller and maps the decoded response onto Out. The wire
// value is re-encoded with the caller's transformer and decoded with
// encoding/json, so Out must be a JSON-compatible type and the transformer
// must produce JSON text (the default codec does).
func Call[Out any](ctx context.Context, cl *Caller, input any, opts ...CallOption) (Out, error) {
	var zero Out

	raw, err := cl.Do(ctx, input, opts...)
	if err != nil || raw == nil {
		return zero, err
	}

	text, err := cl.client.transformer.Serialize(raw)
	if err != nil {
		return zero, fmt.Errorf("client: re-encode response for %s %s: %w", cl.verb, cl.path, err)
	}

	var out Out
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return zero, fmt.Errorf("client: decode response for %s %s: %w", cl.verb, cl.path, err)
	}
	return out, nil
}
