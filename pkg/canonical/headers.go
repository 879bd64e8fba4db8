package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header is a single name/value pair. The name keeps the case it was authored with.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Headers is an ordered header mapping keyed by exact (case-sensitive) name.
// Setting an existing name replaces its value in place, so the first
// declaration fixes the position and the last write fixes the value.
type Headers []Header

// Get returns the value stored under the exact name.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if hdr.Name == name {
			return hdr.Value, true
		}
	}
	return "", false
}

// Has reports whether the exact name is present.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// GetFold returns the first value whose name matches case-insensitively.
func (h Headers) GetFold(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Set stores value under name.
func (h *Headers) Set(name, value string) {
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Header{Name: name, Value: value})
}

// Del removes the exact names given.
func (h *Headers) Del(names ...string) {
	if len(*h) == 0 || len(names) == 0 {
		return
	}
	kept := (*h)[:0]
	for _, hdr := range *h {
		drop := false
		for _, name := range names {
			if hdr.Name == name {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, hdr)
		}
	}
	*h = kept
}

// DelFold removes every header whose name matches case-insensitively.
func (h *Headers) DelFold(name string) {
	var exact []string
	for _, hdr := range *h {
		if strings.EqualFold(hdr.Name, name) {
			exact = append(exact, hdr.Name)
		}
	}
	h.Del(exact...)
}

// Clone returns an independent copy. A nil receiver clones to nil.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

// MarshalJSON encodes the headers as a JSON object in declaration order.
func (h Headers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, hdr := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(hdr.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(hdr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (h *Headers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*h = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("headers: expected a JSON object")
	}
	var out Headers
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out.Set(key, value)
	}
	*h = out
	return nil
}

// MarshalYAML encodes the headers as an ordered YAML mapping.
func (h Headers) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, hdr := range h {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: hdr.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: hdr.Value},
		)
	}
	return node, nil
}
