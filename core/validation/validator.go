// Package validation provides the built-in object validator for endpoint
// payload declarations. The dispatchers only ever see the opaque
// ports.Validator capability, so applications are free to plug in their
// own validators instead.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/calltree/calltree/ports"
)

// FieldType identifies the expected type of a field value.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeAny    FieldType = "any"
)

// Field declares validation rules for one object field.
type Field struct {
	// Type is the expected value type. Empty means TypeAny.
	Type FieldType

	// Required rejects the payload when the field is absent.
	Required bool

	// MinLength/MaxLength constrain string length (0 = unset).
	MinLength int
	MaxLength int

	// Min/Max constrain numeric values.
	Min *float64
	Max *float64

	// Pattern is a regular expression a string value must match.
	Pattern string

	// OneOf restricts a string value to a fixed set.
	OneOf []string
}

// Object validates map-shaped payloads field by field. Unknown fields are
// rejected (strict mode - fail loud). Safe for concurrent use after
// construction.
type Object struct {
	fields   map[string]Field
	patterns map[string]*regexp.Regexp
}

// NewObject builds an object validator. Pattern constraints are compiled
// eagerly; an invalid pattern is a programming error and panics, the same
// way regexp.MustCompile does.
func NewObject(fields map[string]Field) *Object {
	o := &Object{
		fields:   fields,
		patterns: make(map[string]*regexp.Regexp),
	}
	for name, f := range fields {
		if f.Pattern != "" {
			o.patterns[name] = regexp.MustCompile(f.Pattern)
		}
	}
	return o
}

// SafeParse checks a decoded wire value against the field declarations.
// On failure the result carries one issue per violated constraint.
func (o *Object) SafeParse(value any) ports.ParseResult {
	obj, ok := value.(map[string]any)
	if !ok {
		return fail(ports.Issue{Path: []string{}, Message: "expected an object"})
	}

	var issues []ports.Issue

	// Unknown field detection, in deterministic order.
	var unknown []string
	for name := range obj {
		if _, ok := o.fields[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		issues = append(issues, ports.Issue{
			Path:    []string{name},
			Message: "unknown field",
		})
	}

	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := o.fields[name]
		v, has := obj[name]

		if !has || v == nil {
			if f.Required {
				issues = append(issues, ports.Issue{
					Path:    []string{name},
					Message: "required",
				})
			}
			continue
		}

		issues = append(issues, o.checkField(name, f, v)...)
	}

	if len(issues) > 0 {
		return fail(issues...)
	}
	return ports.ParseResult{OK: true, Data: value}
}

func (o *Object) checkField(name string, f Field, v any) []ports.Issue {
	var issues []ports.Issue
	add := func(msg string) {
		issues = append(issues, ports.Issue{Path: []string{name}, Message: msg})
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			add("must be a string")
			return issues
		}
		if f.MinLength > 0 && len(s) < f.MinLength {
			add(fmt.Sprintf("must be at least %d characters", f.MinLength))
		}
		if f.MaxLength > 0 && len(s) > f.MaxLength {
			add(fmt.Sprintf("must be at most %d characters", f.MaxLength))
		}
		if re := o.patterns[name]; re != nil && !re.MatchString(s) {
			add("does not match pattern " + f.Pattern)
		}
		if len(f.OneOf) > 0 && !contains(f.OneOf, s) {
			add("must be one of: " + strings.Join(f.OneOf, ", "))
		}

	case TypeInt:
		n, ok := asFloat(v)
		if !ok || n != float64(int64(n)) {
			add("must be an integer")
			return issues
		}
		issues = append(issues, checkRange(name, f, n)...)

	case TypeFloat:
		n, ok := asFloat(v)
		if !ok {
			add("must be a number")
			return issues
		}
		issues = append(issues, checkRange(name, f, n)...)

	case TypeBool:
		if _, ok := v.(bool); !ok {
			add("must be a boolean")
		}
	}

	return issues
}

func checkRange(name string, f Field, n float64) []ports.Issue {
	var issues []ports.Issue
	if f.Min != nil && n < *f.Min {
		issues = append(issues, ports.Issue{
			Path:    []string{name},
			Message: fmt.Sprintf("must be at least %v", *f.Min),
		})
	}
	if f.Max != nil && n > *f.Max {
		issues = append(issues, ports.Issue{
			Path:    []string{name},
			Message: fmt.Sprintf("must be at most %v", *f.Max),
		})
	}
	return issues
}

// asFloat widens the numeric types a transformer may produce. The default
// JSON codec decodes every number as float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func fail(issues ...ports.Issue) ports.ParseResult {
	return ports.ParseResult{OK: false, Issues: issues}
}
