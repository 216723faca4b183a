// Package server walks a handler tree in lockstep with a schema tree and
// registers one request handler per implemented endpoint on a chi router.
// Paths are derived with the same normalization the client dispatcher
// uses, so the two sides agree on the wire without configuration.
package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/calltree/calltree/adapters/metrics"
	"github.com/calltree/calltree/core/codec"
	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/ports"
)

// defaultMaxBodyBytes bounds request body reads (10MB).
const defaultMaxBodyBytes = 10 << 20

// Options configures a server.
type Options struct {
	// Transformer decodes and encodes payloads. Defaults to the JSON codec.
	Transformer ports.Transformer

	// Metadata resolves out-of-band request context. Endpoints that
	// require metadata fail with 400 when no resolver is configured.
	Metadata ports.MetadataResolver

	// Collector, when set, records per-endpoint request metrics.
	Collector *metrics.Collector

	// Logger is the diagnostic sink. Defaults to a no-op logger.
	Logger zerolog.Logger

	// MaxBodyBytes bounds request body reads. Defaults to 10MB.
	MaxBodyBytes int64
}

// routeKey identifies one registered endpoint.
type routeKey struct {
	verb schema.Verb
	path string
}

// Server dispatches requests for one schema tree. The schema is read-only
// and shared; the dispatch table is guarded so Register may layer
// additional handler trees after startup.
type Server struct {
	schema      schema.Schema
	transformer ports.Transformer
	metadata    ports.MetadataResolver
	collector   *metrics.Collector
	logger      zerolog.Logger
	maxBody     int64
	router      chi.Router

	mu      sync.RWMutex
	table   map[routeKey]HandlerFunc
	mounted map[routeKey]bool
}

// New builds a server for the given schema and registers the initial
// handler tree (which may be nil for incremental registration).
func New(s schema.Schema, h Handlers, opts Options) (*Server, error) {
	srv := &Server{
		schema:      s,
		transformer: opts.Transformer,
		metadata:    opts.Metadata,
		collector:   opts.Collector,
		logger:      opts.Logger,
		maxBody:     opts.MaxBodyBytes,
		router:      chi.NewRouter(),
		table:       make(map[routeKey]HandlerFunc),
		mounted:     make(map[routeKey]bool),
	}
	if srv.transformer == nil {
		srv.transformer = codec.JSON{}
	}
	if srv.maxBody <= 0 {
		srv.maxBody = defaultMaxBodyBytes
	}

	if h != nil {
		if err := srv.Register(h); err != nil {
			return nil, err
		}
	}

	return srv, nil
}

// Router returns the router carrying all registered endpoints.
func (s *Server) Router() chi.Router { return s.router }

// Register layers a partial handler tree onto the server. Every handler
// entry must correspond to a schema endpoint; a stray entry is an error,
// not a silent skip, so typos surface at startup instead of as dead
// routes. Re-registering a verb+path replaces the previous handler (last
// registration wins).
func (s *Server) Register(h Handlers) error {
	if err := s.register(nil, s.schema, h); err != nil {
		return err
	}
	if s.collector != nil {
		s.mu.RLock()
		s.collector.RegisteredEndpoints.Set(float64(len(s.table)))
		s.mu.RUnlock()
	}
	return nil
}

func (s *Server) register(prefix []string, node schema.Schema, h Handlers) error {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := h[key]
		segments := append(prefix[:len(prefix):len(prefix)], key)
		at := strings.Join(segments, ".")

		switch v := entry.(type) {
		case Handlers:
			sub, ok := node[key].(schema.Schema)
			if !ok {
				return fmt.Errorf("server: handler tree names %q but the schema has no subtree there", at)
			}
			if err := s.register(segments, sub, v); err != nil {
				return err
			}

		case Route:
			route, ok := node[key].(schema.Route)
			if !ok {
				return fmt.Errorf("server: handler tree names %q but the schema has no route there", at)
			}
			for _, verb := range schema.Verbs() {
				fn, ok := v[verb]
				if !ok {
					continue
				}
				ep, ok := route[verb]
				if !ok {
					return fmt.Errorf("server: schema declares no %s endpoint at %q", verb, at)
				}
				s.mount(verb, schema.Path(segments), ep, fn)
			}

		default:
			return fmt.Errorf("server: handler entry %q has unsupported type %T", at, entry)
		}
	}
	return nil
}

// mount installs a handler for one endpoint. The chi route is registered
// once per verb+path; later registrations only swap the dispatch table
// entry, which keeps re-registration idempotent on the router.
func (s *Server) mount(verb schema.Verb, path string, ep schema.Endpoint, fn HandlerFunc) {
	key := routeKey{verb: verb, path: path}

	s.mu.Lock()
	_, replaced := s.table[key]
	s.table[key] = fn
	alreadyMounted := s.mounted[key]
	s.mounted[key] = true
	s.mu.Unlock()

	if alreadyMounted {
		if replaced {
			s.logger.Debug().
				Str("verb", string(verb)).
				Str("path", path).
				Msg("handler replaced")
		}
		return
	}

	chiPath := path
	if chiPath == "" {
		chiPath = "/"
	}
	s.router.MethodFunc(verb.Method(), chiPath, s.dispatch(key, ep))

	s.logger.Info().
		Str("verb", string(verb)).
		Str("path", chiPath).
		Msg("endpoint registered")
}
