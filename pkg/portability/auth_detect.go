package portability

import (
	"strings"

	"github.com/getmockd/specimport/pkg/canonical"
)

// Inferred auth types for header-based detection.
const (
	AuthTypeBearer = "bearer"
	AuthTypeAPIKey = "apikey"
	AuthTypeHeader = "header"
)

// Where the detected auth came from.
const (
	AuthSourceCollection = "collection"
	AuthSourceRequest    = "request"
	AuthSourceHeader     = "header"
	AuthSourceSchemes    = "securitySchemes"
)

// AuthDetection describes authentication metadata found in a document before
// the user has supplied any credentials.
type AuthDetection struct {
	HasAuth  bool   `json:"hasAuth"`
	AuthType string `json:"authType,omitempty"`
	Source   string `json:"source,omitempty"`

	// Header is the header that triggered header-based detection.
	Header string `json:"header,omitempty"`

	// Schemes lists detected OpenAPI schemes, including a synthetic
	// header-auth scheme when requests carry auth-like headers.
	Schemes []DetectedScheme `json:"schemes,omitempty"`
}

// DetectedScheme is one authentication mechanism inferred from metadata.
type DetectedScheme struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// DetectAuth dispatches to the format-specific detector.
func DetectAuth(c *Collection) AuthDetection {
	if c == nil {
		return AuthDetection{}
	}
	switch c.Format {
	case FormatPostman:
		return DetectPostmanAuth(c)
	case FormatOpenAPI:
		return DetectOpenAPIAuth(c)
	default:
		return AuthDetection{}
	}
}

var postmanAuthHeaderTokens = []string{"authorization", "x-api-key", "x-auth-token", "bearer"}

// DetectPostmanAuth inspects a parsed Postman collection. A collection-level
// auth block wins; then the first request-level auth block; then any
// auth-like header, with the type inferred from its name and value.
func DetectPostmanAuth(c *Collection) AuthDetection {
	if c.Auth != nil {
		return AuthDetection{HasAuth: true, AuthType: postmanAuthType(c.Auth), Source: AuthSourceCollection}
	}

	var match *canonical.Header
	for _, req := range c.Requests {
		if req.Auth != nil {
			return AuthDetection{HasAuth: true, AuthType: postmanAuthType(req.Auth), Source: AuthSourceRequest}
		}
		if match != nil {
			continue
		}
		for _, h := range req.Headers {
			if containsAny(strings.ToLower(h.Name), postmanAuthHeaderTokens) {
				found := h
				match = &found
				break
			}
		}
	}

	if match == nil {
		return AuthDetection{}
	}
	return AuthDetection{
		HasAuth:  true,
		AuthType: inferHeaderAuthType(match.Name, match.Value),
		Source:   AuthSourceHeader,
		Header:   match.Name,
	}
}

func inferHeaderAuthType(name, value string) string {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "bearer") || strings.Contains(strings.ToLower(value), "bearer"):
		return AuthTypeBearer
	case strings.Contains(name, "api"):
		return AuthTypeAPIKey
	default:
		return AuthTypeHeader
	}
}

func postmanAuthType(auth map[string]interface{}) string {
	if t, ok := auth["type"].(string); ok && t != "" {
		return t
	}
	return "unknown"
}

var openAPIAuthHeaderTokens = []string{"authorization", "x-api-key", "x-auth-token"}

// DetectOpenAPIAuth enumerates declared security schemes and adds a synthetic
// header-auth scheme when requests carry auth-like headers.
func DetectOpenAPIAuth(c *Collection) AuthDetection {
	schemes := make([]DetectedScheme, 0, len(c.SecuritySchemes)+1)
	hasHeaderKind := false
	for _, s := range c.SecuritySchemes {
		schemes = append(schemes, DetectedScheme{
			Name:        s.Name,
			Kind:        s.Type,
			Description: s.Describe(),
		})
		if s.Type == AuthTypeHeader {
			hasHeaderKind = true
		}
	}

	if !hasHeaderKind {
		if header, ok := firstAuthHeader(c.Requests); ok {
			schemes = append(schemes, DetectedScheme{
				Name:        "header-auth",
				Kind:        AuthTypeHeader,
				Description: "Authentication header in requests: " + header,
			})
		}
	}

	if len(schemes) == 0 {
		return AuthDetection{}
	}
	return AuthDetection{
		HasAuth:  true,
		AuthType: schemes[0].Kind,
		Source:   AuthSourceSchemes,
		Schemes:  schemes,
	}
}

func firstAuthHeader(requests []canonical.Request) (string, bool) {
	for _, req := range requests {
		for _, h := range req.Headers {
			if containsAny(strings.ToLower(h.Name), openAPIAuthHeaderTokens) {
				return h.Name, true
			}
		}
	}
	return "", false
}
