package portability

import (
	"bytes"
	"encoding/json"
	"sort"
)

// objectKeys returns the keys of the JSON object found at path inside data,
// in document order. It returns nil when the path does not lead to an object.
func objectKeys(data []byte, path ...string) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	return keysAt(dec, path)
}

func keysAt(dec *json.Decoder, path []string) []string {
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if len(path) > 0 && key == path[0] {
			return keysAt(dec, path[1:])
		}
		if len(path) == 0 {
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
	}
	if len(path) > 0 {
		return nil
	}
	return keys
}

// orderedKeys returns the keys of m, ordered as they appear in the raw
// document at path. Keys missing from the raw scan are appended sorted.
func orderedKeys(m map[string]interface{}, data []byte, path ...string) []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, k := range objectKeys(data, path...) {
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	if len(out) == len(m) {
		return out
	}
	rest := make([]string, 0, len(m)-len(out))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// firstPathItem returns the first entry of the top-level paths object.
func firstPathItem(data []byte, paths map[string]interface{}) (map[string]interface{}, bool) {
	keys := orderedKeys(paths, data, "paths")
	if len(keys) == 0 {
		return nil, false
	}
	item, ok := paths[keys[0]].(map[string]interface{})
	return item, ok
}
