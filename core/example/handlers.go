package example

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/core/server"
	"github.com/calltree/calltree/ports"
)

// User is one directory record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store holds users in memory and records every mutation in an audit log.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
	audit []string
	start time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]User),
		start: time.Now(),
	}
}

// List returns all users sorted by name.
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create adds a user and returns the stored record.
func (s *Store) Create(name, email string) User {
	u := User{ID: uuid.NewString(), Name: name, Email: email}

	s.mu.Lock()
	s.users[u.ID] = u
	s.audit = append(s.audit, fmt.Sprintf("created user %s", u.ID))
	s.mu.Unlock()

	return u
}

// Delete removes a user. Deleting an unknown id is not an error; the
// outcome is the same either way.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.audit = append(s.audit, fmt.Sprintf("deleted user %s", id))
	s.mu.Unlock()
}

// Audit returns a copy of the audit log.
func (s *Store) Audit() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.audit...)
}

// Handlers builds the handler tree backing Tree(), with every endpoint
// served from the given store.
func Handlers(store *Store) server.Handlers {
	return server.Handlers{
		"users": server.Route{
			schema.Get: func(_ *server.Context, _ any, _ any) (any, error) {
				return store.List(), nil
			},
			schema.Post: func(_ *server.Context, input any, _ any) (any, error) {
				in := input.(map[string]any)
				u := store.Create(in["name"].(string), in["email"].(string))
				return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email}, nil
			},
			schema.Delete: func(_ *server.Context, input any, _ any) (any, error) {
				in := input.(map[string]any)
				store.Delete(in["id"].(string))
				return nil, nil
			},
		},
		"admin": server.Handlers{
			"systemInfo": server.Route{
				schema.Get: func(_ *server.Context, _ any, meta any) (any, error) {
					return map[string]any{
						"go":         runtime.Version(),
						"goroutines": runtime.NumGoroutine(),
						"uptime":     time.Since(store.start).String(),
						"caller":     meta,
					}, nil
				},
			},
			"auditLog": server.Route{
				schema.Get: func(_ *server.Context, _ any, _ any) (any, error) {
					return store.Audit(), nil
				},
			},
		},
		"status": server.Route{
			schema.Get: func(_ *server.Context, _ any, _ any) (any, error) {
				return map[string]any{"ok": true}, nil
			},
		},
	}
}

// MetadataHeader is where callers identify themselves.
const MetadataHeader = "X-Calltree-Caller"

// HeaderMetadata resolves request metadata from a header. A blank header
// resolves to nil; the dispatcher rejects the request when the endpoint
// requires metadata.
func HeaderMetadata() ports.MetadataResolver {
	return ports.MetadataResolverFunc(func(r *http.Request, _ bool) (any, error) {
		caller := r.Header.Get(MetadataHeader)
		if caller == "" {
			return nil, nil
		}
		return caller, nil
	})
}
