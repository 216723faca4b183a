package example_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/calltree/calltree/core/client"
	"github.com/calltree/calltree/core/example"
	"github.com/calltree/calltree/core/server"
)

func startGateway(t *testing.T) (*httptest.Server, *example.Store) {
	t.Helper()

	store := example.NewStore()
	srv, err := server.New(example.Tree(), example.Handlers(store), server.Options{
		Metadata: example.HeaderMetadata(),
	})
	if err != nil {
		t.Fatalf("server.New error: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func newClient(t *testing.T, ts *httptest.Server) *client.Client {
	t.Helper()
	c, err := client.New(example.Tree(), client.Options{Entrypoint: ts.URL})
	if err != nil {
		t.Fatalf("client.New error: %v", err)
	}
	return c
}

func TestUserLifecycle(t *testing.T) {
	ts, store := startGateway(t)
	c := newClient(t, ts)
	ctx := context.Background()

	created, err := c.MustCaller("post", "users").Do(ctx, map[string]any{
		"name":  "alice",
		"email": "alice@example.com",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	id := created.(map[string]any)["id"].(string)
	if id == "" {
		t.Fatal("created user has no id")
	}

	listed, err := c.MustCaller("get", "users").Do(ctx, nil)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if users := listed.([]any); len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}

	if _, err := c.MustCaller("delete", "users").Do(ctx, map[string]any{"id": id}); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if len(store.List()) != 0 {
		t.Error("user still present after delete")
	}

	audit := store.Audit()
	if len(audit) != 2 {
		t.Errorf("audit entries = %d, want 2", len(audit))
	}
}

func TestCreateUserRejectsBadEmail(t *testing.T) {
	ts, _ := startGateway(t)
	c := newClient(t, ts)

	_, err := c.MustCaller("post", "users").Do(context.Background(), map[string]any{
		"name":  "bob",
		"email": "not-an-email",
	})
	if err == nil {
		t.Fatal("expected validation failure for bad email")
	}
	var terr *client.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if terr.Status != 400 {
		t.Errorf("Status = %d, want 400", terr.Status)
	}
}

func TestSystemInfoRequiresCaller(t *testing.T) {
	ts, _ := startGateway(t)
	c := newClient(t, ts)
	ctx := context.Background()

	caller := c.MustCaller("get", "admin", "systemInfo")
	if caller.Path() != "/admin/system-info" {
		t.Fatalf("Path() = %q, want /admin/system-info", caller.Path())
	}

	if _, err := caller.Do(ctx, nil); err == nil {
		t.Fatal("expected failure without caller header")
	}

	out, err := caller.Do(ctx, nil, client.WithHeader(example.MetadataHeader, "ops"))
	if err != nil {
		t.Fatalf("system info with caller: %v", err)
	}
	if info := out.(map[string]any); info["caller"] != "ops" {
		t.Errorf("caller = %v, want ops", info["caller"])
	}
}

func TestStatusNeedsNoMetadata(t *testing.T) {
	ts, _ := startGateway(t)
	c := newClient(t, ts)

	out, err := c.MustCaller("get", "status").Do(context.Background(), nil)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status := out.(map[string]any); status["ok"] != true {
		t.Errorf("status = %v", out)
	}
}
