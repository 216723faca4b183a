package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/ports"
)

// stubFetcher records requests and plays back canned responses.
type stubFetcher struct {
	requests []ports.Request
	response *ports.Response
	err      error
}

func (s *stubFetcher) Fetch(ctx context.Context, req ports.Request) (*ports.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.response != nil {
		return s.response, nil
	}
	return &ports.Response{Status: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
}

func ok(status int, body string) *ports.Response {
	return &ports.Response{Status: status, Body: []byte(body)}
}

func clientSchema() schema.Schema {
	return schema.Schema{
		"users": schema.Route{
			schema.Get:  schema.Endpoint{Output: schema.Raw},
			schema.Post: schema.Endpoint{Input: schema.Raw, Output: schema.Raw},
		},
		"admin": schema.Schema{
			"systemInfo": schema.Route{
				schema.Get: schema.Endpoint{Input: schema.Raw, Output: schema.Raw},
			},
		},
		"ping": schema.Route{
			schema.Post: schema.Endpoint{},
		},
	}
}

func newTestClient(t *testing.T, fetcher ports.Fetcher, interceptor ports.Interceptor) *Client {
	t.Helper()
	c, err := New(clientSchema(), Options{
		Entrypoint:     "http://api.test",
		Fetcher:        fetcher,
		Interceptor:    interceptor,
		DefaultHeaders: map[string]string{"X-Client": "calltree"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRequiresEntrypoint(t *testing.T) {
	if _, err := New(clientSchema(), Options{}); err == nil {
		t.Fatal("New without entrypoint should fail")
	}
}

func TestCallerLookup(t *testing.T) {
	c := newTestClient(t, &stubFetcher{}, nil)

	caller, err := c.Caller(schema.Get, "admin", "systemInfo")
	if err != nil {
		t.Fatalf("Caller() error = %v", err)
	}
	if caller.Path() != "/admin/system-info" {
		t.Errorf("path = %q, want /admin/system-info", caller.Path())
	}

	if _, err := c.Caller(schema.Get, "missing"); err == nil {
		t.Error("lookup of unknown subtree should fail")
	}
	if _, err := c.Caller(schema.Delete, "users"); err == nil {
		t.Error("lookup of undeclared verb should fail")
	}
}

func TestBranchNavigation(t *testing.T) {
	c := newTestClient(t, &stubFetcher{}, nil)

	caller, err := c.At("admin").At("systemInfo").Caller(schema.Get)
	if err != nil {
		t.Fatalf("Caller() error = %v", err)
	}
	if caller.Path() != "/admin/system-info" {
		t.Errorf("path = %q, want /admin/system-info", caller.Path())
	}

	// Descending past a missing key is representable; the error surfaces
	// when a caller is requested.
	if _, err := c.At("admin", "nope").Caller(schema.Get); err == nil {
		t.Error("caller under missing subtree should fail")
	}
}

func TestMissingInputFailsBeforeNetwork(t *testing.T) {
	fetcher := &stubFetcher{}
	c := newTestClient(t, fetcher, nil)

	_, err := c.MustCaller(schema.Post, "users").Do(context.Background(), nil)

	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("err = %v, want *ArgumentError", err)
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("fetcher saw %d requests, want 0", len(fetcher.requests))
	}
}

func TestInputOnNoInputEndpointFails(t *testing.T) {
	fetcher := &stubFetcher{}
	c := newTestClient(t, fetcher, nil)

	_, err := c.MustCaller(schema.Post, "ping").Do(context.Background(), map[string]any{"x": 1})

	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("err = %v, want *ArgumentError", err)
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("fetcher saw %d requests, want 0", len(fetcher.requests))
	}
}

func TestGetPayloadTravelsInQueryNotBody(t *testing.T) {
	fetcher := &stubFetcher{response: ok(200, `{"a":1}`)}
	c := newTestClient(t, fetcher, nil)

	_, err := c.MustCaller(schema.Get, "admin", "systemInfo").
		Do(context.Background(), map[string]any{"a": 1.0})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	req := fetcher.requests[0]
	if len(req.Body) != 0 {
		t.Errorf("GET request has body %q, want none", req.Body)
	}
	if req.Method != http.MethodGet {
		t.Errorf("method = %q", req.Method)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	payload := u.Query().Get(schema.BodyParam)
	if payload != `{"a":1}` {
		t.Errorf("query payload = %q, want {\"a\":1}", payload)
	}
	if !strings.HasPrefix(req.URL, "http://api.test/admin/system-info?") {
		t.Errorf("url = %q", req.URL)
	}
}

func TestPostPayloadTravelsInBody(t *testing.T) {
	fetcher := &stubFetcher{response: ok(201, `{"id":"1"}`)}
	c := newTestClient(t, fetcher, nil)

	out, err := c.MustCaller(schema.Post, "users").
		Do(context.Background(), map[string]any{"name": "a"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	req := fetcher.requests[0]
	if string(req.Body) != `{"name":"a"}` {
		t.Errorf("body = %q", req.Body)
	}
	if req.Headers["Content-Type"] != "application/json" {
		t.Errorf("content type = %q", req.Headers["Content-Type"])
	}
	if req.URL != "http://api.test/users" {
		t.Errorf("url = %q", req.URL)
	}

	m, ok := out.(map[string]any)
	if !ok || m["id"] != "1" {
		t.Errorf("out = %#v", out)
	}
}

func TestDefaultAndPerCallHeaders(t *testing.T) {
	fetcher := &stubFetcher{}
	c := newTestClient(t, fetcher, nil)

	_, err := c.MustCaller(schema.Get, "users").
		Do(context.Background(), nil, WithHeader("X-Client", "override"), WithHeader("X-Extra", "1"))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	req := fetcher.requests[0]
	if req.Headers["X-Client"] != "override" {
		t.Errorf("X-Client = %q, want override", req.Headers["X-Client"])
	}
	if req.Headers["X-Extra"] != "1" {
		t.Errorf("X-Extra = %q, want 1", req.Headers["X-Extra"])
	}
}

func TestWithFetcherOverridesForOneCall(t *testing.T) {
	defaultFetcher := &stubFetcher{}
	override := &stubFetcher{}
	c := newTestClient(t, defaultFetcher, nil)
	caller := c.MustCaller(schema.Get, "users")

	if _, err := caller.Do(context.Background(), nil, WithFetcher(override)); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if _, err := caller.Do(context.Background(), nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if len(override.requests) != 1 || len(defaultFetcher.requests) != 1 {
		t.Errorf("override saw %d, default saw %d, want 1 and 1",
			len(override.requests), len(defaultFetcher.requests))
	}
}

func TestInterceptorSeesEveryResponseOnce(t *testing.T) {
	type seen struct {
		verb, path string
		status     int
		callCtx    any
	}
	var calls []seen

	interceptor := func(ctx context.Context, verb, path string, res *ports.Response, callCtx any) error {
		calls = append(calls, seen{verb, path, res.Status, callCtx})
		return nil
	}

	fetcher := &stubFetcher{response: ok(500, "boom")}
	c := newTestClient(t, fetcher, interceptor)

	_, err := c.MustCaller(schema.Get, "users").
		Do(context.Background(), nil, WithCallContext("trace-1"))

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if len(calls) != 1 {
		t.Fatalf("interceptor invoked %d times, want 1", len(calls))
	}
	got := calls[0]
	if got.verb != "get" || got.path != "/users" || got.status != 500 || got.callCtx != "trace-1" {
		t.Errorf("interceptor saw %+v", got)
	}
}

func TestSkipInterceptor(t *testing.T) {
	invoked := 0
	interceptor := func(context.Context, string, string, *ports.Response, any) error {
		invoked++
		return nil
	}

	c := newTestClient(t, &stubFetcher{}, interceptor)
	if _, err := c.MustCaller(schema.Get, "users").Do(context.Background(), nil, SkipInterceptor()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if invoked != 0 {
		t.Errorf("interceptor invoked %d times, want 0", invoked)
	}
}

func TestInterceptorErrorFailsCall(t *testing.T) {
	interceptor := func(context.Context, string, string, *ports.Response, any) error {
		return errors.New("refresh failed")
	}

	c := newTestClient(t, &stubFetcher{}, interceptor)
	if _, err := c.MustCaller(schema.Get, "users").Do(context.Background(), nil); err == nil {
		t.Fatal("interceptor error should fail the call")
	}
}

func TestTransportErrorDescription(t *testing.T) {
	t.Run("from body", func(t *testing.T) {
		c := newTestClient(t, &stubFetcher{response: ok(400, `{"error":"bad"}`)}, nil)
		_, err := c.MustCaller(schema.Get, "users").Do(context.Background(), nil)

		var terr *TransportError
		if !errors.As(err, &terr) {
			t.Fatalf("err = %v", err)
		}
		if terr.Status != 400 || terr.Description != `{"error":"bad"}` {
			t.Errorf("TransportError = %+v", terr)
		}
		msg := terr.Error()
		for _, part := range []string{"get", "/users", "400", terr.Description} {
			if !strings.Contains(msg, part) {
				t.Errorf("Error() = %q missing %q", msg, part)
			}
		}
	})

	t.Run("fallback to reason phrase", func(t *testing.T) {
		c := newTestClient(t, &stubFetcher{response: ok(503, "")}, nil)
		_, err := c.MustCaller(schema.Get, "users").Do(context.Background(), nil)

		var terr *TransportError
		if !errors.As(err, &terr) {
			t.Fatalf("err = %v", err)
		}
		if terr.Description != http.StatusText(http.StatusServiceUnavailable) {
			t.Errorf("description = %q", terr.Description)
		}
	})
}

func TestNoOutputEndpointResolvesToNil(t *testing.T) {
	fetcher := &stubFetcher{response: ok(201, "")}
	c := newTestClient(t, fetcher, nil)

	out, err := c.MustCaller(schema.Post, "ping").Do(context.Background(), nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out != nil {
		t.Errorf("out = %#v, want nil", out)
	}
}

func TestFetchErrorSurfacesToIssuer(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	c := newTestClient(t, fetcher, nil)

	if _, err := c.MustCaller(schema.Get, "users").Do(context.Background(), nil); err == nil {
		t.Fatal("fetch error should fail the call")
	}
	if len(fetcher.requests) != 1 {
		t.Errorf("fetcher saw %d requests, want exactly 1 (no retries)", len(fetcher.requests))
	}
}

func TestGenericCall(t *testing.T) {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	fetcher := &stubFetcher{response: ok(200, `{"name":"alice","age":30}`)}
	c := newTestClient(t, fetcher, nil)

	got, err := Call[user](context.Background(), c.MustCaller(schema.Get, "users"), nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got.Name != "alice" || got.Age != 30 {
		t.Errorf("Call() = %+v", got)
	}
}
