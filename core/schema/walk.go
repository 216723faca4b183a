package schema

import (
	"fmt"
	"sort"
)

// WalkFunc visits one endpoint. segments holds the original (unnormalized)
// schema keys from the root; verb and ep identify the endpoint at that
// position. Returning an error stops the walk.
type WalkFunc func(segments []string, verb Verb, ep Endpoint) error

// Walk visits every endpoint in the tree depth-first, with keys and verbs
// in sorted order, so every traversal of the same schema sees endpoints in
// the same sequence regardless of map iteration order.
func Walk(s Schema, fn WalkFunc) error {
	return walk(nil, s, fn)
}

func walk(prefix []string, s Schema, fn WalkFunc) error {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		// Full-slice expression forces a copy on append so sibling
		// branches never share backing arrays.
		segments := append(prefix[:len(prefix):len(prefix)], k)

		switch node := s[k].(type) {
		case Schema:
			if err := walk(segments, node, fn); err != nil {
				return err
			}
		case Route:
			for _, v := range Verbs() {
				ep, ok := node[v]
				if !ok {
					continue
				}
				if err := fn(segments, v, ep); err != nil {
					return err
				}
			}
		case nil:
			return fmt.Errorf("schema: key %q has nil node", k)
		}
	}
	return nil
}
