// Package client walks a schema tree into a callable surface: one caller
// per endpoint, each bound to its derived path and verb. Paths are derived
// with the same normalization the server dispatcher uses, so the two sides
// agree on the wire without configuration.
package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calltree/calltree/adapters/httpfetch"
	"github.com/calltree/calltree/core/codec"
	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/ports"
	"github.com/rs/zerolog"
)

// Options configures a client.
type Options struct {
	// Entrypoint is the base URL all derived paths are appended to.
	Entrypoint string

	// Transformer encodes payloads. Defaults to the JSON codec.
	Transformer ports.Transformer

	// Fetcher sends requests. Defaults to an httpfetch.Fetcher with its
	// standard timeout.
	Fetcher ports.Fetcher

	// Interceptor, when set, observes every response before its body is
	// interpreted.
	Interceptor ports.Interceptor

	// DefaultHeaders are sent with every call, below per-call overrides.
	DefaultHeaders map[string]string

	// Logger is the diagnostic sink. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Client is the callable surface built from one schema tree. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	entrypoint  string
	transformer ports.Transformer
	fetcher     ports.Fetcher
	interceptor ports.Interceptor
	headers     map[string]string
	logger      zerolog.Logger
	root        *branch
}

// branch is one node of the caller tree, keyed by original schema keys.
type branch struct {
	children map[string]*branch
	callers  map[schema.Verb]*Caller
}

func newBranch() *branch {
	return &branch{
		children: make(map[string]*branch),
		callers:  make(map[schema.Verb]*Caller),
	}
}

// New builds a client for the given schema. The schema is traversed once,
// depth-first; every endpoint yields one caller bound to its position.
func New(s schema.Schema, opts Options) (*Client, error) {
	if opts.Entrypoint == "" {
		return nil, errors.New("client: entrypoint URL is required")
	}

	c := &Client{
		entrypoint:  strings.TrimRight(opts.Entrypoint, "/"),
		transformer: opts.Transformer,
		fetcher:     opts.Fetcher,
		interceptor: opts.Interceptor,
		headers:     opts.DefaultHeaders,
		logger:      opts.Logger,
		root:        newBranch(),
	}
	if c.transformer == nil {
		c.transformer = codec.JSON{}
	}
	if c.fetcher == nil {
		c.fetcher = httpfetch.New(httpfetch.Config{})
	}

	err := schema.Walk(s, func(segments []string, verb schema.Verb, ep schema.Endpoint) error {
		br := c.root
		for _, seg := range segments {
			child, ok := br.children[seg]
			if !ok {
				child = newBranch()
				br.children[seg] = child
			}
			br = child
		}
		br.callers[verb] = &Caller{
			client:   c,
			verb:     verb,
			path:     schema.Path(segments),
			endpoint: ep,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("client: build caller tree: %w", err)
	}

	return c, nil
}

// Branch is a position in the caller tree. A branch addressing a key the
// schema does not declare is representable; the error surfaces on Caller.
type Branch struct {
	client   *Client
	node     *branch
	segments []string
}

// At descends the caller tree by original (unnormalized) schema keys.
func (c *Client) At(segments ...string) *Branch {
	return (&Branch{client: c, node: c.root}).At(segments...)
}

// At descends further from this branch.
func (b *Branch) At(segments ...string) *Branch {
	node := b.node
	for _, seg := range segments {
		if node == nil {
			break
		}
		node = node.children[seg]
	}
	return &Branch{
		client:   b.client,
		node:     node,
		segments: append(append([]string(nil), b.segments...), segments...),
	}
}

// Caller returns the caller for a verb at this position.
func (b *Branch) Caller(verb schema.Verb) (*Caller, error) {
	at := strings.Join(b.segments, ".")
	if b.node == nil {
		return nil, fmt.Errorf("client: no schema subtree at %q", at)
	}
	caller, ok := b.node.callers[verb]
	if !ok {
		return nil, fmt.Errorf("client: no %s endpoint at %q", verb, at)
	}
	return caller, nil
}

// Caller looks up the caller for a verb at a tree position, addressed by
// the original (unnormalized) schema keys.
func (c *Client) Caller(verb schema.Verb, segments ...string) (*Caller, error) {
	return c.At(segments...).Caller(verb)
}

// MustCaller is Caller but panics on a missing endpoint. Useful at startup
// when the endpoint is known to exist.
func (c *Client) MustCaller(verb schema.Verb, segments ...string) *Caller {
	caller, err := c.Caller(verb, segments...)
	if err != nil {
		panic(err)
	}
	return caller
}
