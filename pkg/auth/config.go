// Package auth models the credential choice a caller makes after a collection
// has been imported, and applies it to canonical requests.
package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies an authentication variant.
type Kind string

// Supported authentication kinds.
const (
	KindNone     Kind = "none"
	KindAPIKey   Kind = "apikey"
	KindBearer   Kind = "bearer"
	KindBasic    Kind = "basic"
	KindCustom   Kind = "custom"
	KindDetected Kind = "detected"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{KindNone, KindAPIKey, KindBearer, KindBasic, KindCustom, KindDetected}
}

// ErrMissingField is returned by Validate when a variant lacks a required value.
var ErrMissingField = errors.New("missing required field")

// ErrUnknownKind is returned by New for an unrecognised kind.
var ErrUnknownKind = errors.New("unknown auth kind")

// Config is one authentication choice. The set of implementations is closed:
// None, APIKey, Bearer, Basic, Custom and Detected.
type Config interface {
	Kind() Kind
	// Host returns the hostname override carried with the choice, or "".
	Host() string
	sealed()
}

// None leaves request headers untouched.
type None struct {
	Hostname string `json:"hostname,omitempty"`
}

// APIKey sends Value in the header named Key.
type APIKey struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Hostname string `json:"hostname,omitempty"`
}

// Bearer sends "Authorization: Bearer <Token>".
type Bearer struct {
	Token    string `json:"token"`
	Hostname string `json:"hostname,omitempty"`
}

// Basic sends HTTP basic credentials.
type Basic struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Hostname string `json:"hostname,omitempty"`
}

// Custom sends Value in an arbitrary header.
type Custom struct {
	Header   string `json:"header"`
	Value    string `json:"value"`
	Hostname string `json:"hostname,omitempty"`
}

// Detected records which detected scheme the user accepted. It does not
// change headers.
type Detected struct {
	Scheme   string `json:"scheme"`
	Hostname string `json:"hostname,omitempty"`
}

func (None) Kind() Kind     { return KindNone }
func (APIKey) Kind() Kind   { return KindAPIKey }
func (Bearer) Kind() Kind   { return KindBearer }
func (Basic) Kind() Kind    { return KindBasic }
func (Custom) Kind() Kind   { return KindCustom }
func (Detected) Kind() Kind { return KindDetected }

func (c None) Host() string     { return c.Hostname }
func (c APIKey) Host() string   { return c.Hostname }
func (c Bearer) Host() string   { return c.Hostname }
func (c Basic) Host() string    { return c.Hostname }
func (c Custom) Host() string   { return c.Hostname }
func (c Detected) Host() string { return c.Hostname }

func (None) sealed()     {}
func (APIKey) sealed()   {}
func (Bearer) sealed()   {}
func (Basic) sealed()    {}
func (Custom) sealed()   {}
func (Detected) sealed() {}

// Normalize dereferences pointer variants so callers may pass either
// Bearer{...} or &Bearer{...}. A nil pointer becomes a nil Config.
func Normalize(cfg Config) Config {
	switch c := cfg.(type) {
	case *None:
		if c != nil {
			return *c
		}
	case *APIKey:
		if c != nil {
			return *c
		}
	case *Bearer:
		if c != nil {
			return *c
		}
	case *Basic:
		if c != nil {
			return *c
		}
	case *Custom:
		if c != nil {
			return *c
		}
	case *Detected:
		if c != nil {
			return *c
		}
	default:
		return cfg
	}
	return nil
}

// Validate reports missing required fields. Apply never validates; callers
// gate on this before applying credentials.
func Validate(cfg Config) error {
	cfg = Normalize(cfg)
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c := cfg.(type) {
	case nil, None:
	case APIKey:
		require("key", c.Key)
		require("value", c.Value)
	case Bearer:
		require("token", c.Token)
	case Basic:
		require("username", c.Username)
	case Custom:
		require("header", c.Header)
		require("value", c.Value)
	case Detected:
		require("scheme", c.Scheme)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s auth: %w: %s", cfg.Kind(), ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// New builds a Config from a kind name and loosely-typed parameters, as
// collected by the CLI. Unknown parameter names are ignored.
func New(kind string, params map[string]string, hostname string) (Config, error) {
	get := func(name string) string { return params[name] }

	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindNone:
		return None{Hostname: hostname}, nil
	case KindAPIKey:
		return APIKey{Key: get("key"), Value: get("value"), Hostname: hostname}, nil
	case KindBearer:
		return Bearer{Token: get("token"), Hostname: hostname}, nil
	case KindBasic:
		return Basic{Username: get("username"), Password: get("password"), Hostname: hostname}, nil
	case KindCustom:
		return Custom{Header: get("header"), Value: get("value"), Hostname: hostname}, nil
	case KindDetected:
		return Detected{Scheme: get("scheme"), Hostname: hostname}, nil
	default:
		names := make([]string, 0, len(Kinds()))
		for _, k := range Kinds() {
			names = append(names, string(k))
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownKind, kind, strings.Join(names, ", "))
	}
}
