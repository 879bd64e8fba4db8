package canonical

// Body modes.
const (
	BodyRaw      = "raw"
	BodyFormData = "formdata"
)

// FormField is one key/value pair of a form body.
type FormField struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Body is a request payload. Raw bodies carry the text verbatim; form bodies
// carry their enabled fields in declaration order.
type Body struct {
	Mode        string      `json:"mode" yaml:"mode"`
	ContentType string      `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Raw         string      `json:"raw,omitempty" yaml:"raw,omitempty"`
	Form        []FormField `json:"formdata,omitempty" yaml:"formdata,omitempty"`
}

// Clone returns a deep copy of the body.
func (b *Body) Clone() *Body {
	if b == nil {
		return nil
	}
	out := *b
	if b.Form != nil {
		out.Form = make([]FormField, len(b.Form))
		copy(out.Form, b.Form)
	}
	return &out
}

// Parameter is a declared OpenAPI operation parameter.
type Parameter struct {
	Name     string      `json:"name" yaml:"name"`
	In       string      `json:"in" yaml:"in"` // query, header, path, cookie, body
	Required bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Schema   interface{} `json:"schema,omitempty" yaml:"schema,omitempty"`
	Example  interface{} `json:"example,omitempty" yaml:"example,omitempty"`
}

// Request is one HTTP operation extracted from a source document.
type Request struct {
	// ID is stable within a single parse.
	ID string `json:"id" yaml:"id"`

	// Name is a human label. It may be empty and regenerated from the URL.
	Name string `json:"name" yaml:"name"`

	// Method is the uppercased HTTP verb.
	Method string `json:"method" yaml:"method"`

	// URL is the authored URL, never resolved at parse time.
	URL string `json:"url" yaml:"url"`

	Headers    Headers     `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       *Body       `json:"body,omitempty" yaml:"body,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Auth is the source-native auth block (Postman only), carried unresolved.
	Auth map[string]interface{} `json:"auth,omitempty" yaml:"auth,omitempty"`
}

// Clone returns a copy that shares nothing mutable with r except the
// unresolved Auth block and parameter schemas, which are treated as read-only.
func (r Request) Clone() Request {
	out := r
	out.Headers = r.Headers.Clone()
	out.Body = r.Body.Clone()
	if r.Parameters != nil {
		out.Parameters = make([]Parameter, len(r.Parameters))
		copy(out.Parameters, r.Parameters)
	}
	return out
}
