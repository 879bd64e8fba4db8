package requestspec

import (
	"regexp"
	"strings"
)

var (
	repeatedSlashes = regexp.MustCompile(`/{2,}`)
	schemeAndHost   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/?#]*`)
)

// SessionName derives "METHOD /path" from the authored URL. It works on the
// URL before any hostname substitution and never panics; on failure it
// returns "METHOD url" verbatim.
func SessionName(method, rawURL string) (name string) {
	defer func() {
		if r := recover(); r != nil {
			name = method + " " + rawURL
		}
	}()
	return method + " " + NamePath(rawURL)
}

// NamePath normalizes a URL to the path used in session names. Query and
// fragment never influence the result.
func NamePath(raw string) string {
	var path string
	bare := stripQuery(raw)
	switch {
	case strings.Contains(bare, "://"):
		rest := bare[strings.Index(bare, "://")+3:]
		if i := strings.Index(rest, "/"); i >= 0 {
			path = rest[i:]
		} else {
			path = "/"
		}
	case strings.Contains(bare, "}}"):
		path = bare[strings.LastIndex(bare, "}}")+2:]
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
	case strings.HasPrefix(raw, "/"):
		path = raw
	default:
		path = "/" + raw
	}

	path = clean(path)
	if path == "/" && raw != "/" {
		fallback := schemeAndHost.ReplaceAllString(bare, "")
		if fallback = repeatedSlashes.ReplaceAllString(fallback, "/"); fallback != "" {
			return fallback
		}
	}
	return path
}

func clean(path string) string {
	path = repeatedSlashes.ReplaceAllString(stripQuery(path), "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
