// Package httpfetch implements the fetch capability on net/http.
package httpfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calltree/calltree/ports"
)

// Config configures the fetcher.
type Config struct {
	// Timeout bounds each request. Ignored when Client is set.
	Timeout time.Duration

	// Headers are applied to every request before per-request headers.
	Headers map[string]string

	// Client overrides the default http.Client.
	Client *http.Client
}

// Fetcher sends requests with a shared http.Client.
type Fetcher struct {
	client  *http.Client
	headers map[string]string
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Fetcher{
		client:  client,
		headers: cfg.Headers,
	}
}

// Fetch sends one request and reads the full response body.
func (f *Fetcher) Fetch(ctx context.Context, req ports.Request) (*ports.Response, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range f.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &ports.Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
	}, nil
}
