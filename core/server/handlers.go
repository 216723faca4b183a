package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/calltree/calltree/core/schema"
)

// Handlers is the server-side partial overlay of a schema tree: only the
// endpoints a server implements need entries. Values are nested Handlers
// or Route maps; anything else is rejected at registration.
type Handlers map[string]any

// Route maps verbs to handler functions at one path level.
type Route map[schema.Verb]HandlerFunc

// Context carries the raw request/response pair into a handler. The
// response writer is wrapped so the dispatcher can tell whether the
// handler already wrote the response itself; a handler that writes and
// ends the response directly is never double-written.
type Context struct {
	Request  *http.Request
	Response middleware.WrapResponseWriter
}

// HandlerFunc implements one endpoint. input is the validated payload
// (nil when the endpoint declares none), meta is the resolved request
// metadata (nil when unused or optional and absent). The returned value
// becomes the response body after output validation; a returned error
// yields a 500 unless the handler already responded.
type HandlerFunc func(ctx *Context, input any, meta any) (any, error)
