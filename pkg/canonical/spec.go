package canonical

// Spec is the resolved, transport-ready description of a request.
type Spec struct {
	Method  string  `json:"method" yaml:"method"`
	Host    string  `json:"host" yaml:"host"`
	Port    int     `json:"port" yaml:"port"`
	Path    string  `json:"path" yaml:"path"`
	Query   string  `json:"query,omitempty" yaml:"query,omitempty"`
	Headers Headers `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string  `json:"body,omitempty" yaml:"body,omitempty"`
	TLS     bool    `json:"tls" yaml:"tls"`
	URL     string  `json:"url" yaml:"url"`
}

// DefaultPort reports whether Port is the scheme default (443 with TLS, 80 without).
func (s *Spec) DefaultPort() bool {
	if s.TLS {
		return s.Port == 443
	}
	return s.Port == 80
}

// Target returns the request target: path plus query when present.
func (s *Spec) Target() string {
	path := s.Path
	if path == "" {
		path = "/"
	}
	if s.Query != "" {
		return path + "?" + s.Query
	}
	return path
}
