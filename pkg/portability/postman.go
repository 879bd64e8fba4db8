package portability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/getmockd/specimport/pkg/canonical"
)

// Postman Collection v2.x types. Items are kept raw so a malformed request
// only costs that request, not the whole collection.

// PostmanCollection represents a Postman Collection v2.x.
type PostmanCollection struct {
	Info     PostmanInfo            `json:"info"`
	Item     []json.RawMessage      `json:"item"`
	Auth     map[string]interface{} `json:"auth,omitempty"`
	Variable []json.RawMessage      `json:"variable,omitempty"`
}

// PostmanInfo contains collection metadata.
type PostmanInfo struct {
	PostmanID   string          `json:"_postman_id,omitempty"`
	Name        *string         `json:"name"`
	Description json.RawMessage `json:"description,omitempty"`
	Schema      string          `json:"schema,omitempty"`
}

// PostmanItem represents an item in the collection (request or folder).
type PostmanItem struct {
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name"`
	Request json.RawMessage   `json:"request,omitempty"`
	Item    []json.RawMessage `json:"item,omitempty"` // Nested items (folders)
}

// PostmanRequest represents a Postman request.
type PostmanRequest struct {
	Method string                 `json:"method"`
	URL    json.RawMessage        `json:"url"`
	Header []PostmanHeader        `json:"header,omitempty"`
	Body   *PostmanBody           `json:"body,omitempty"`
	Auth   map[string]interface{} `json:"auth,omitempty"`
}

// PostmanURL represents a structured URL in Postman format.
type PostmanURL struct {
	Raw      string          `json:"raw,omitempty"`
	Protocol string          `json:"protocol,omitempty"`
	Host     json.RawMessage `json:"host,omitempty"` // string or []string
	Port     json.RawMessage `json:"port,omitempty"` // string or number
	Path     json.RawMessage `json:"path,omitempty"` // string or []string
}

// PostmanHeader represents a request header.
type PostmanHeader struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// PostmanBody represents a request body.
type PostmanBody struct {
	Mode     string            `json:"mode"`
	Raw      string            `json:"raw,omitempty"`
	FormData []PostmanFormData `json:"formdata,omitempty"`
	Options  *struct {
		Raw struct {
			Language string `json:"language,omitempty"`
		} `json:"raw"`
	} `json:"options,omitempty"`
}

// PostmanFormData represents form data.
type PostmanFormData struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Type     string `json:"type,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// PostmanImporter imports Postman Collection v2.x format.
type PostmanImporter struct{}

// Import parses a Postman Collection.
func (i *PostmanImporter) Import(data []byte) (*Document, error) {
	c, err := ParsePostman(data)
	if err != nil {
		return nil, err
	}
	return &Document{Format: FormatPostman, Collection: c}, nil
}

// Format returns FormatPostman.
func (i *PostmanImporter) Format() Format {
	return FormatPostman
}

// ParsePostman parses a Postman collection into a Collection. It fails only
// when the document is not JSON or info.name is absent; malformed requests
// are skipped and reported in Warnings.
func ParsePostman(data []byte) (*Collection, error) {
	data = stripBOM(data)
	var pc PostmanCollection
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, jsonError(FormatPostman, "failed to parse Postman collection", data, err)
	}
	if pc.Info.Name == nil {
		return nil, &ImportError{
			Format:  FormatPostman,
			Message: "collection info.name is missing",
		}
	}

	c := &Collection{
		Format:      FormatPostman,
		Name:        *pc.Info.Name,
		Description: describe(pc.Info.Description),
		Auth:        pc.Auth,
		Requests:    make([]canonical.Request, 0),
	}
	c.Requests = pc.extractRequests(pc.Item, c.Requests, &c.Warnings)

	for idx, raw := range pc.Variable {
		v, ok := environmentVariable(raw)
		if !ok {
			c.Warnings = append(c.Warnings, fmt.Sprintf("variable[%d]: skipped, key and value must be strings", idx))
			continue
		}
		c.Variables = append(c.Variables, v)
	}
	return c, nil
}

// extractRequests walks the item tree depth-first and appends every leaf
// request to out. Folder structure is discarded.
func (pc *PostmanCollection) extractRequests(items []json.RawMessage, out []canonical.Request, warnings *[]string) []canonical.Request {
	for _, raw := range items {
		var item PostmanItem
		if err := json.Unmarshal(raw, &item); err != nil {
			*warnings = append(*warnings, "skipped malformed item: "+err.Error())
			continue
		}

		if len(item.Request) > 0 && string(item.Request) != "null" {
			req, err := postmanRequest(item)
			if err != nil {
				*warnings = append(*warnings, fmt.Sprintf("skipped request %q: %v", item.Name, err))
				continue
			}
			out = append(out, req)
			continue
		}

		if item.Item != nil {
			out = pc.extractRequests(item.Item, out, warnings)
		}
	}
	return out
}

var errMissingURL = errors.New("request has no URL")

// postmanRequest converts one leaf item into a canonical request.
func postmanRequest(item PostmanItem) (canonical.Request, error) {
	var pr PostmanRequest

	// A request may be a bare URL string.
	var short string
	if err := json.Unmarshal(item.Request, &short); err == nil {
		pr.URL, _ = json.Marshal(short)
	} else if err := json.Unmarshal(item.Request, &pr); err != nil {
		return canonical.Request{}, err
	}

	rawURL, err := postmanURLString(pr.URL)
	if err != nil {
		return canonical.Request{}, err
	}

	method := strings.ToUpper(strings.TrimSpace(pr.Method))
	if method == "" {
		method = "GET"
	}

	req := canonical.Request{
		ID:     item.ID,
		Name:   item.Name,
		Method: method,
		URL:    rawURL,
		Auth:   pr.Auth,
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Name == "" {
		req.Name = method + " " + rawURL
	}

	for _, h := range pr.Header {
		if h.Key == "" || h.Value == "" || h.Disabled {
			continue
		}
		req.Headers.Set(h.Key, h.Value)
	}

	req.Body = postmanBody(pr.Body, req.Headers)
	return req, nil
}

// postmanURLString accepts the three URL shapes: a plain string, an object
// with raw, or a structured {protocol, host, port, path} object.
func postmanURLString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errMissingURL
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errMissingURL
		}
		return s, nil
	}

	var u PostmanURL
	if err := json.Unmarshal(raw, &u); err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Raw != "" {
		return u.Raw, nil
	}

	hosts := stringOrList(u.Host)
	if len(hosts) == 0 {
		return "", errMissingURL
	}
	protocol := strings.TrimSuffix(u.Protocol, "://")
	if protocol == "" {
		protocol = "https"
	}

	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	b.WriteString(strings.Join(hosts, "."))
	if port := scalarString(u.Port); port != "" {
		b.WriteString(":")
		b.WriteString(port)
	}
	if path := stringOrList(u.Path); len(path) > 0 {
		b.WriteString("/")
		b.WriteString(strings.Join(path, "/"))
	}
	return b.String(), nil
}

// postmanBody keeps raw bodies verbatim and enabled form fields; other modes
// are ignored.
func postmanBody(body *PostmanBody, headers canonical.Headers) *canonical.Body {
	if body == nil {
		return nil
	}
	contentType, _ := headers.GetFold("Content-Type")

	switch body.Mode {
	case canonical.BodyRaw:
		if contentType == "" && body.Options != nil {
			contentType = languageContentType(body.Options.Raw.Language)
		}
		return &canonical.Body{Mode: canonical.BodyRaw, ContentType: contentType, Raw: body.Raw}
	case canonical.BodyFormData:
		fields := make([]canonical.FormField, 0, len(body.FormData))
		for _, f := range body.FormData {
			if f.Disabled {
				continue
			}
			fields = append(fields, canonical.FormField{Key: f.Key, Value: f.Value, Type: f.Type})
		}
		return &canonical.Body{Mode: canonical.BodyFormData, ContentType: contentType, Form: fields}
	default:
		return nil
	}
}

func languageContentType(language string) string {
	switch strings.ToLower(language) {
	case "json":
		return "application/json"
	case "xml":
		return "application/xml"
	case "html":
		return "text/html"
	case "javascript":
		return "application/javascript"
	case "text":
		return "text/plain"
	default:
		return ""
	}
}

// stringOrList decodes a JSON string or a list of strings. Non-string list
// entries are dropped.
func stringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// init registers the Postman importer.
func init() {
	RegisterImporter(&PostmanImporter{})
}
