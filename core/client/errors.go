package client

import (
	"fmt"

	"github.com/calltree/calltree/core/schema"
)

// TransportError is returned when the server answers a call with a
// non-2xx status. Its message always carries verb, path, status, and
// description for debuggability.
type TransportError struct {
	Verb        schema.Verb
	Path        string
	Status      int
	Description string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("calltree: %s %s failed with status %d: %s",
		e.Verb, e.Path, e.Status, e.Description)
}

// ArgumentError reports misuse of a caller. It is returned before any
// network activity takes place.
type ArgumentError struct {
	Verb   schema.Verb
	Path   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("calltree: %s %s: %s", e.Verb, e.Path, e.Reason)
}
