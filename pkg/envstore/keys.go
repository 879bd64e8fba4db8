package envstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dotenv variable names may only hold letters, digits, '_' and '.'. Postman
// keys are free-form ("x-api-key", "base url"), so names are escaped on disk:
// '.' introduces a two-digit hex byte, and every byte outside [A-Za-z0-9_]
// is written that way.

func encodeKey(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty variable name")
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isPlainKeyByte(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, ".%02X", c)
	}
	return b.String(), nil
}

func decodeKey(stored string) (string, error) {
	if !strings.Contains(stored, ".") {
		return stored, nil
	}
	var b strings.Builder
	for i := 0; i < len(stored); i++ {
		if stored[i] != '.' {
			b.WriteByte(stored[i])
			continue
		}
		if i+2 >= len(stored) {
			return "", fmt.Errorf("malformed variable name %q", stored)
		}
		n, err := strconv.ParseUint(stored[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("malformed variable name %q", stored)
		}
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String(), nil
}

func isPlainKeyByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func encodeKeys(values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		enc, err := encodeKey(k)
		if err != nil {
			return nil, err
		}
		out[enc] = v
	}
	return out, nil
}

func decodeKeys(values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		dec, err := decodeKey(k)
		if err != nil {
			return nil, err
		}
		out[dec] = v
	}
	return out, nil
}
