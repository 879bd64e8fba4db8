package portability

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// CircularRefKey is the single key of the placeholder object returned when a
// $ref chain loops back onto a reference already being expanded.
const CircularRefKey = "$circular"

// Literal examples for well-known string formats.
const (
	exampleEmail    = "user@example.com"
	exampleDate     = "2024-01-01"
	exampleDateTime = "2024-01-01T00:00:00Z"
	exampleUUID     = "123e4567-e89b-12d3-a456-426614174000"
)

// ExampleGenerator produces deterministic example values from JSON Schema
// fragments of an OpenAPI document. $ref values are resolved against the
// whole document.
type ExampleGenerator struct {
	root interface{}
}

// NewExampleGenerator creates a generator resolving references inside root,
// the decoded specification document.
func NewExampleGenerator(root interface{}) *ExampleGenerator {
	return &ExampleGenerator{root: root}
}

// refSet is the set of references expanded on the current branch. It is
// copied on every insert so sibling branches never see each other's entries.
type refSet map[string]struct{}

func (s refSet) with(ref string) refSet {
	out := make(refSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[ref] = struct{}{}
	return out
}

// Example produces an example value for schema, or nil when none can be derived.
// Priority: explicit example, $ref, composition, then type-specific rules.
func (g *ExampleGenerator) Example(schema interface{}) interface{} {
	return g.example(schema, nil)
}

func (g *ExampleGenerator) example(schema interface{}, visited refSet) interface{} {
	s, ok := schema.(map[string]interface{})
	if !ok {
		return nil
	}

	if ex, ok := s["example"]; ok && ex != nil {
		return ex
	}

	if ref, ok := s["$ref"].(string); ok {
		if _, seen := visited[ref]; seen {
			return map[string]interface{}{CircularRefKey: ref}
		}
		resolved, ok := g.Resolve(ref)
		if !ok {
			return nil
		}
		return g.example(resolved, visited.with(ref))
	}

	if all, ok := s["allOf"].([]interface{}); ok && len(all) > 0 {
		return g.allOf(s, all, visited)
	}
	for _, key := range []string{"oneOf", "anyOf"} {
		if variants, ok := s[key].([]interface{}); ok && len(variants) > 0 {
			return g.example(variants[0], visited)
		}
	}

	switch schemaType(s) {
	case "string":
		return stringExample(s)
	case "number", "integer":
		if enum, ok := s["enum"].([]interface{}); ok && len(enum) > 0 {
			return enum[0]
		}
		if minimum, ok := s["minimum"]; ok && minimum != nil {
			return minimum
		}
		return 0
	case "boolean":
		return true
	case "array":
		item := g.example(s["items"], visited)
		if item == nil {
			return []interface{}{}
		}
		return []interface{}{item}
	case "object":
		return g.object(s, visited)
	default:
		return nil
	}
}

func stringExample(s map[string]interface{}) interface{} {
	if enum, ok := s["enum"].([]interface{}); ok && len(enum) > 0 {
		return enum[0]
	}
	switch stringOf(s["format"]) {
	case "email":
		return exampleEmail
	case "date":
		return exampleDate
	case "date-time":
		return exampleDateTime
	case "uuid":
		return exampleUUID
	}
	if _, ok := s["pattern"]; ok {
		return "example"
	}
	return "string"
}

// object builds a mapping from properties, then fills any required property
// still missing. An empty result is reported as nil.
func (g *ExampleGenerator) object(s map[string]interface{}, visited refSet) interface{} {
	props := mapOf(s["properties"])
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]interface{}, len(props))
	for _, name := range names {
		if v := g.example(props[name], visited); v != nil {
			out[name] = v
		}
	}

	required, _ := s["required"].([]interface{})
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, done := out[name]; done {
			continue
		}
		v := g.example(props[name], visited)
		if v == nil {
			v = "required_value"
		}
		out[name] = v
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// allOf merges the object examples of every sub-schema with the parent's own properties.
func (g *ExampleGenerator) allOf(s map[string]interface{}, all []interface{}, visited refSet) interface{} {
	merged := make(map[string]interface{})
	for _, sub := range all {
		if m, ok := g.example(sub, visited).(map[string]interface{}); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	if _, ok := s["properties"]; ok {
		if m, ok := g.object(s, visited).(map[string]interface{}); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// schemaType returns the declared type, inferring object/array from shape
// when the type is omitted. OpenAPI 3.1 type lists use their first non-null entry.
func schemaType(s map[string]interface{}) string {
	switch t := s["type"].(type) {
	case string:
		return t
	case []interface{}:
		for _, v := range t {
			if str, ok := v.(string); ok && str != "null" {
				return str
			}
		}
	}
	if _, ok := s["properties"]; ok {
		return "object"
	}
	if _, ok := s["items"]; ok {
		return "array"
	}
	return ""
}

// Resolve follows a local "#/a/b/c" reference through the document.
func (g *ExampleGenerator) Resolve(ref string) (interface{}, bool) {
	x, ok := refExpr(ref)
	if !ok {
		return nil, false
	}
	results := x.Get(g.root)
	if len(results) == 0 || results[0] == nil {
		return nil, false
	}
	return results[0], true
}

// refExpr converts a JSON pointer fragment into a JSONPath child expression.
// Numeric segments match either a map key or a list index.
func refExpr(ref string) (jp.Expr, bool) {
	segs, ok := refSegments(ref)
	if !ok {
		return nil, false
	}
	x := jp.R()
	for _, seg := range segs {
		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			x = x.U(seg, int64(n))
			continue
		}
		x = x.C(seg)
	}
	return x, true
}

// refSegments splits a local "#/a/b/c" reference into unescaped keys.
func refSegments(ref string) ([]string, bool) {
	if !strings.HasPrefix(ref, "#/") || len(ref) == 2 {
		return nil, false
	}
	segs := strings.Split(ref[2:], "/")
	for i, seg := range segs {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		seg = strings.ReplaceAll(seg, "~1", "/")
		segs[i] = strings.ReplaceAll(seg, "~0", "~")
	}
	return segs, true
}
