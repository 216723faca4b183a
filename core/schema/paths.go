package schema

import (
	"strings"

	"github.com/calltree/calltree/core/convention"
)

// BodyParam is the reserved query parameter carrying the serialized
// payload of GET requests, which must not have a body. Both dispatchers
// read and write the same parameter name.
const BodyParam = "__body"

// Path derives the wire path for a chain of schema keys: each key is
// normalized to kebab-case and the results are joined with "/". Root-level
// endpoints (no segments) yield "". Path derivation is the central
// invariant of the protocol: the client and the server must produce
// byte-identical paths from the same schema position.
func Path(segments []string) string {
	if len(segments) == 0 {
		return ""
	}

	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = convention.Kebab(seg)
	}
	return "/" + strings.Join(parts, "/")
}

// EndpointInfo describes one endpoint for introspection.
type EndpointInfo struct {
	Path         string `json:"path"`
	Verb         Verb   `json:"verb"`
	HasInput     bool   `json:"has_input"`
	HasOutput    bool   `json:"has_output"`
	CacheControl string `json:"cache_control,omitempty"`
}

// Endpoints flattens a schema tree into its (verb, path) table in
// deterministic walk order.
func Endpoints(s Schema) []EndpointInfo {
	var infos []EndpointInfo
	// Walk over pure data cannot fail.
	_ = Walk(s, func(segments []string, verb Verb, ep Endpoint) error {
		infos = append(infos, EndpointInfo{
			Path:         Path(segments),
			Verb:         verb,
			HasInput:     !ep.Input.IsNone(),
			HasOutput:    !ep.Output.IsNone(),
			CacheControl: ep.CacheControl,
		})
		return nil
	})
	return infos
}
