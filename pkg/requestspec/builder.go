// Package requestspec resolves canonical requests into transport-ready specs
// and derives display names for them.
package requestspec

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/getmockd/specimport/pkg/canonical"
)

// PlaceholderHost replaces template variables when no hostname override is given.
const PlaceholderHost = "example.com"

// ErrUnresolvableURL is returned when a resolved URL does not decompose into
// scheme, host, port, path and query.
var ErrUnresolvableURL = errors.New("unresolvable URL")

var (
	templateToken = regexp.MustCompile(`\{\{[^}]*\}\}`)
	schemePrefix  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	hostSegment   = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*://)([^/?#\s]*)`)

	// absoluteURL groups: scheme, host, port, path, query. A fragment is dropped.
	absoluteURL = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://([^/:?#\s]+)(?::(\d+))?(/[^?#]*)?(?:\?([^#]*))?(?:#.*)?$`)
)

// IsTemplated reports whether raw contains a {{variable}} token.
func IsTemplated(raw string) bool {
	return templateToken.MatchString(raw)
}

// ResolveURL turns an authored URL into an absolute one. hostname, when set,
// replaces the host of every URL shape; otherwise template tokens become
// PlaceholderHost and root-relative URLs are anchored there.
func ResolveURL(raw, hostname string) string {
	raw = strings.TrimSpace(raw)
	hostname = strings.TrimSpace(hostname)

	var resolved string
	switch {
	case hostname != "" && IsTemplated(raw):
		resolved = templateToken.ReplaceAllLiteralString(raw, hostname)
	case hostname != "" && strings.HasPrefix(raw, "/"):
		resolved = "https://" + hostname + raw
	case hostname != "":
		resolved = replaceHost(ensureScheme(raw), hostname)
	case IsTemplated(raw):
		resolved = templateToken.ReplaceAllLiteralString(raw, PlaceholderHost)
		if strings.HasPrefix(raw, "/") {
			resolved = "https://" + PlaceholderHost + resolved
		}
	case strings.HasPrefix(raw, "/"):
		resolved = "https://" + PlaceholderHost + raw
	default:
		resolved = raw
	}
	return ensureScheme(resolved)
}

func ensureScheme(u string) string {
	if schemePrefix.MatchString(u) {
		return u
	}
	return "https://" + u
}

// replaceHost swaps the host of an absolute URL, keeping its port unless the
// override carries its own.
func replaceHost(u, hostname string) string {
	m := hostSegment.FindStringSubmatchIndex(u)
	if m == nil {
		return u
	}
	authority := u[m[4]:m[5]]
	if !strings.Contains(hostname, ":") {
		if i := strings.LastIndex(authority, ":"); i >= 0 && !strings.Contains(authority[i:], "]") {
			hostname += authority[i:]
		}
	}
	return u[:m[4]] + hostname + u[m[5]:]
}

// Build resolves req against an optional hostname override. The returned
// error wraps ErrUnresolvableURL; callers drop the request and continue.
func Build(req canonical.Request, hostname string) (*canonical.Spec, error) {
	resolved := ResolveURL(req.URL, hostname)
	m := absoluteURL.FindStringSubmatch(resolved)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvableURL, resolved)
	}

	scheme := strings.ToLower(m[1])
	tls := scheme == "https"
	port := 80
	if tls {
		port = 443
	}
	if m[3] != "" {
		p, err := strconv.Atoi(m[3])
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("%w: invalid port %q", ErrUnresolvableURL, m[3])
		}
		port = p
	}

	path := m[4]
	if path == "" {
		path = "/"
	}

	spec := &canonical.Spec{
		Method:  req.Method,
		Host:    m[2],
		Port:    port,
		Path:    path,
		Query:   m[5],
		Headers: req.Headers.Clone(),
		TLS:     tls,
		URL:     resolved,
	}
	if spec.Method == "" {
		spec.Method = "GET"
	}
	applyBody(spec, req.Body)
	return spec, nil
}

// applyBody copies raw bodies verbatim and url-encodes form bodies, which
// always carry a form content type.
func applyBody(spec *canonical.Spec, body *canonical.Body) {
	if body == nil {
		return
	}
	switch body.Mode {
	case canonical.BodyFormData:
		pairs := make([]string, 0, len(body.Form))
		for _, f := range body.Form {
			pairs = append(pairs, url.QueryEscape(f.Key)+"="+url.QueryEscape(f.Value))
		}
		spec.Body = strings.Join(pairs, "&")
		spec.Headers.DelFold("Content-Type")
		spec.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		spec.Body = body.Raw
		if _, ok := spec.Headers.GetFold("Content-Type"); !ok && body.ContentType != "" {
			spec.Headers.Set("Content-Type", body.ContentType)
		}
	}
}
