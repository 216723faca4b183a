// Package schema defines the declarative endpoint tree shared by the
// client and server dispatchers. A tree is pure data: both dispatchers
// only read it, so one schema value is safely shared by any number of
// concurrent calls and requests.
package schema

import (
	"strings"

	"github.com/calltree/calltree/ports"
)

// Verb is an HTTP method in canonical lowercase form.
type Verb string

// Supported verbs.
const (
	Get    Verb = "get"
	Post   Verb = "post"
	Put    Verb = "put"
	Patch  Verb = "patch"
	Delete Verb = "delete"
)

// Verbs returns all supported verbs in canonical order. Traversals iterate
// this slice instead of ranging over Route maps so endpoint visit order is
// deterministic.
func Verbs() []Verb {
	return []Verb{Get, Post, Put, Patch, Delete}
}

// ParseVerb converts a wire method name (any case) to its canonical verb.
func ParseVerb(s string) (Verb, bool) {
	switch v := Verb(strings.ToLower(s)); v {
	case Get, Post, Put, Patch, Delete:
		return v, true
	default:
		return "", false
	}
}

// Method returns the uppercase HTTP method for the verb.
func (v Verb) Method() string { return strings.ToUpper(string(v)) }

// payloadKind discriminates the three payload declarations.
type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadValidated
	payloadRaw
)

// Payload declares how an endpoint's input or output is treated on the
// wire. There are three states:
//
//   - None: no payload exists and none is read (the zero value).
//   - Validated(v): a payload exists and must satisfy the validator.
//   - Raw: a payload exists and passes through unvalidated.
type Payload struct {
	kind      payloadKind
	validator ports.Validator
}

// None declares that no payload is expected. Enforced: the client sends
// nothing and the server never reads the wire.
var None = Payload{}

// Raw declares an unvalidated pass-through payload.
var Raw = Payload{kind: payloadRaw}

// Validated declares a payload checked by the given validator.
func Validated(v ports.Validator) Payload {
	return Payload{kind: payloadValidated, validator: v}
}

// IsNone reports whether no payload is declared.
func (p Payload) IsNone() bool { return p.kind == payloadNone }

// IsRaw reports whether the payload passes through unvalidated.
func (p Payload) IsRaw() bool { return p.kind == payloadRaw }

// Validator returns the declared validator, if any.
func (p Payload) Validator() (ports.Validator, bool) {
	return p.validator, p.kind == payloadValidated
}

// MetadataMode controls whether request metadata is resolved for an
// endpoint and whether resolution must succeed. The zero value requires
// metadata, matching the protocol default.
type MetadataMode int

const (
	// MetadataRequired resolves metadata and rejects the request when
	// nothing is found.
	MetadataRequired MetadataMode = iota

	// MetadataOptional resolves metadata but tolerates absence; the
	// handler receives nil.
	MetadataOptional

	// MetadataUnused skips resolution entirely.
	MetadataUnused
)

// Endpoint binds one verb at one tree position to payload declarations and
// behavior flags. An endpoint's identity is its position plus its verb;
// neither changes after construction.
type Endpoint struct {
	// Input and Output declare the request and response payloads.
	Input  Payload
	Output Payload

	// Metadata controls out-of-band context resolution for this endpoint.
	Metadata MetadataMode

	// CacheControl, when non-empty, is set as the Cache-Control header on
	// successful responses.
	CacheControl string

	// Invalidate and AutoScopeInvalidationDepth declare cache invalidation
	// intent. Reserved: no traversal consumes them.
	Invalidate                 []string
	AutoScopeInvalidationDepth int
}

// Node is one position in a schema tree: either a nested Schema or a Route.
type Node interface {
	isNode()
}

// Route maps verbs to endpoints at one path level. Keys are verbs only,
// never further nesting.
type Route map[Verb]Endpoint

// Schema maps names to nested schemas or routes. The tree is acyclic and
// finite; its shape is fixed at construction.
type Schema map[string]Node

func (Route) isNode()  {}
func (Schema) isNode() {}
