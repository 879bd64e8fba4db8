package portability

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/specimport/pkg/canonical"
)

// httpMethods are the path-item keys treated as operations, in output order.
var httpMethods = []string{"get", "post", "put", "patch", "delete", "head", "options", "trace"}

// bodyContentTypes are the request body media types considered, by preference.
var bodyContentTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// harvestStatuses are the responses whose auth-like headers are surfaced.
var harvestStatuses = []string{"200", "201", "default"}

// now is the clock used for synthesized operation IDs.
var now = time.Now

// SecurityScheme is a declared OpenAPI security scheme (securitySchemes in
// 3.x, securityDefinitions in 2.0).
type SecurityScheme struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
	In           string `json:"in,omitempty"`
	ParamName    string `json:"paramName,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Describe returns a human description of the scheme.
func (s SecurityScheme) Describe() string {
	switch s.Type {
	case "http":
		return fmt.Sprintf("HTTP %s authentication", s.Scheme)
	case "apiKey":
		return fmt.Sprintf("API key in %s: %s", s.In, s.ParamName)
	case "oauth2":
		return "OAuth 2.0 authentication"
	case "openIdConnect":
		return "OpenID Connect authentication"
	default:
		return fmt.Sprintf("%s authentication", s.Type)
	}
}

// OpenAPIImporter imports OpenAPI 3.x and Swagger 2.0 specifications.
type OpenAPIImporter struct{}

// Import parses an OpenAPI/Swagger specification.
func (i *OpenAPIImporter) Import(data []byte) (*Document, error) {
	c, err := ParseOpenAPI(data)
	if err != nil {
		return nil, err
	}
	return &Document{Format: FormatOpenAPI, Collection: c}, nil
}

// Format returns FormatOpenAPI.
func (i *OpenAPIImporter) Format() Format {
	return FormatOpenAPI
}

// ParseOpenAPI parses a JSON OpenAPI 3.x or Swagger 2.0 document. YAML input
// is rejected with ErrYAMLNotSupported without being parsed.
func ParseOpenAPI(data []byte) (*Collection, error) {
	data = stripBOM(data)
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		if looksLikeYAML(data) {
			return nil, &ImportError{
				Format:  FormatOpenAPI,
				Message: "convert the specification to JSON",
				Cause:   ErrYAMLNotSupported,
			}
		}
		return nil, jsonError(FormatOpenAPI, "failed to parse specification", data, err)
	}

	openapiVersion, _ := doc["openapi"].(string)
	swaggerVersion, _ := doc["swagger"].(string)
	if openapiVersion == "" && swaggerVersion == "" {
		return nil, &ImportError{
			Format:  FormatOpenAPI,
			Message: "not a valid OpenAPI 3.x or Swagger 2.0 specification: missing openapi or swagger field",
		}
	}

	p := &openAPIParser{
		doc:     doc,
		data:    data,
		swagger: openapiVersion == "",
		gen:     NewExampleGenerator(doc),
	}

	info := mapOf(doc["info"])
	c := &Collection{
		Format:      FormatOpenAPI,
		Name:        stringOf(info["title"]),
		Description: stringOf(info["description"]),
		Version:     stringOf(info["version"]),
		SpecVersion: openapiVersion,
		BaseURL:     p.baseURL(),
		Requests:    make([]canonical.Request, 0),
	}
	if c.Name == "" {
		c.Name = "Imported API"
	}
	if p.swagger {
		c.SpecVersion = swaggerVersion
	}

	paths := mapOf(doc["paths"])
	for _, path := range orderedKeys(paths, data, "paths") {
		item, itemAt := p.derefAt(paths[path], []string{"paths", path})
		if item == nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("skipped path %s: not an object", path))
			continue
		}
		for _, method := range httpMethods {
			raw, ok := item[method]
			if !ok {
				continue
			}
			req, err := p.safeOperation(path, method, raw, item["parameters"], c.BaseURL, at(itemAt, method))
			if err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("skipped %s %s: %v", strings.ToUpper(method), path, err))
				continue
			}
			c.Requests = append(c.Requests, req)
		}
	}

	c.SecuritySchemes = p.securitySchemes()
	return c, nil
}

type openAPIParser struct {
	doc     map[string]interface{}
	data    []byte
	swagger bool
	gen     *ExampleGenerator
}

var serverVariable = regexp.MustCompile(`\{([^{}]+)\}`)

// baseURL prefers servers[0].url; Swagger 2.0 documents get one synthesized
// from schemes, host and basePath.
func (p *openAPIParser) baseURL() string {
	if servers, ok := p.doc["servers"].([]interface{}); ok && len(servers) > 0 {
		server := mapOf(servers[0])
		u := stringOf(server["url"])
		vars := mapOf(server["variables"])
		return serverVariable.ReplaceAllStringFunc(u, func(m string) string {
			v := mapOf(vars[m[1:len(m)-1]])
			if def, ok := v["default"]; ok {
				return stringify(def)
			}
			return m
		})
	}

	host := stringOf(p.doc["host"])
	basePath := stringOf(p.doc["basePath"])
	if host == "" {
		return basePath
	}
	scheme := "http"
	if schemes, ok := p.doc["schemes"].([]interface{}); ok {
		for _, s := range schemes {
			if s == "https" {
				scheme = "https"
				break
			}
		}
	}
	return scheme + "://" + host + basePath
}

// safeOperation isolates one operation: any failure, including a panic on an
// unexpected shape, omits only that operation.
func (p *openAPIParser) safeOperation(path, method string, raw, shared interface{}, base string, opAt []string) (req canonical.Request, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction failed: %v", r)
		}
	}()
	op, ok := raw.(map[string]interface{})
	if !ok {
		return canonical.Request{}, fmt.Errorf("operation is not an object")
	}
	return p.operation(path, method, op, shared, base, opAt), nil
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// opAt locates op in the raw document; it drives document-ordered output.
func (p *openAPIParser) operation(path, method string, op map[string]interface{}, shared interface{}, base string, opAt []string) canonical.Request {
	verb := strings.ToUpper(method)
	operationID := stringOf(op["operationId"])

	req := canonical.Request{
		ID:     operationID,
		Method: verb,
		URL:    strings.TrimSuffix(base, "/") + path,
	}
	if req.ID == "" {
		token := fmt.Sprintf("%s_%s_%d", verb, path, now().UnixMilli())
		req.ID = nonAlphanumeric.ReplaceAllString(token, "_")
	}
	switch {
	case stringOf(op["summary"]) != "":
		req.Name = stringOf(op["summary"])
	case operationID != "":
		req.Name = operationID
	default:
		req.Name = verb + " " + path
	}

	for _, param := range p.parameters(shared, op["parameters"]) {
		req.Parameters = append(req.Parameters, param)
		if param.In == "header" && param.Example != nil {
			req.Headers.Set(param.Name, stringify(param.Example))
		}
	}

	if verb == "POST" || verb == "PUT" || verb == "PATCH" {
		if body := p.requestBody(op, opAt, req.Parameters); body != nil {
			req.Body = body
			req.Headers.Set("Content-Type", body.ContentType)
		}
	}

	p.harvestResponseHeaders(op, opAt, &req.Headers)
	return req
}

// parameters merges path-level and operation-level parameters; an
// operation parameter replaces a path parameter with the same name and location.
func (p *openAPIParser) parameters(shared, own interface{}) []canonical.Parameter {
	var out []canonical.Parameter
	index := make(map[string]int)
	add := func(list interface{}) {
		items, _ := list.([]interface{})
		for _, raw := range items {
			param := p.deref(raw)
			name := stringOf(param["name"])
			if name == "" {
				continue
			}
			cp := canonical.Parameter{
				Name:     name,
				In:       stringOf(param["in"]),
				Required: param["required"] == true,
				Schema:   param["schema"],
				Example:  param["example"],
			}
			if cp.Example == nil {
				if schema := p.deref(param["schema"]); schema != nil {
					cp.Example = schema["example"]
				}
			}
			if cp.Example == nil && p.swagger {
				cp.Example = param["x-example"]
			}
			key := cp.In + "\x00" + cp.Name
			if i, ok := index[key]; ok {
				out[i] = cp
				continue
			}
			index[key] = len(out)
			out = append(out, cp)
		}
	}
	add(shared)
	add(own)
	return out
}

// requestBody picks the first supported media type and produces its example.
func (p *openAPIParser) requestBody(op map[string]interface{}, opAt []string, params []canonical.Parameter) *canonical.Body {
	if p.swagger {
		return p.swaggerBody(op, params)
	}

	rb, rbAt := p.derefAt(op["requestBody"], at(opAt, "requestBody"))
	content := mapOf(rb["content"])
	for _, ct := range bodyContentTypes {
		raw, ok := content[ct]
		if !ok {
			continue
		}
		media := mapOf(raw)
		example, found := p.mediaExample(media, at(rbAt, "content", ct))
		if !found && ct == "application/json" {
			example = p.gen.Example(media["schema"])
		}
		return &canonical.Body{Mode: canonical.BodyRaw, ContentType: ct, Raw: serializeExample(ct, example)}
	}
	return nil
}

// swaggerBody builds a body from Swagger 2.0 "body" or "formData" parameters.
func (p *openAPIParser) swaggerBody(op map[string]interface{}, params []canonical.Parameter) *canonical.Body {
	ct := "application/json"
	if consumes, ok := op["consumes"].([]interface{}); ok {
		ct = preferredContentType(consumes, ct)
	} else if consumes, ok := p.doc["consumes"].([]interface{}); ok {
		ct = preferredContentType(consumes, ct)
	}

	form := url.Values{}
	for _, param := range params {
		switch param.In {
		case "body":
			example := param.Example
			if example == nil {
				example = p.gen.Example(param.Schema)
			}
			return &canonical.Body{Mode: canonical.BodyRaw, ContentType: "application/json", Raw: serializeExample("application/json", example)}
		case "formData":
			form.Set(param.Name, stringify(param.Example))
		}
	}
	if len(form) == 0 {
		return nil
	}
	if ct == "application/json" {
		ct = "application/x-www-form-urlencoded"
	}
	return &canonical.Body{Mode: canonical.BodyRaw, ContentType: ct, Raw: form.Encode()}
}

func preferredContentType(consumes []interface{}, fallback string) string {
	for _, want := range bodyContentTypes {
		for _, c := range consumes {
			if c == want {
				return want
			}
		}
	}
	return fallback
}

// mediaExample returns an explicit example or the first entry of examples,
// in document order.
func (p *openAPIParser) mediaExample(media map[string]interface{}, mediaAt []string) (interface{}, bool) {
	if ex, ok := media["example"]; ok && ex != nil {
		return ex, true
	}
	examples := mapOf(media["examples"])
	if len(examples) == 0 {
		return nil, false
	}
	keys := p.keys(examples, at(mediaAt, "examples"))
	entry := p.deref(examples[keys[0]])
	if v, ok := entry["value"]; ok {
		return v, true
	}
	return nil, false
}

// harvestResponseHeaders copies auth-like response headers that carry an
// example into the request headers, so later detection can see them.
func (p *openAPIParser) harvestResponseHeaders(op map[string]interface{}, opAt []string, headers *canonical.Headers) {
	responses := mapOf(op["responses"])
	for _, status := range harvestStatuses {
		resp, respAt := p.derefAt(responses[status], at(opAt, "responses", status))
		declared := mapOf(resp["headers"])
		for _, name := range p.keys(declared, at(respAt, "headers")) {
			if !strings.Contains(strings.ToLower(name), "auth") {
				continue
			}
			h := p.deref(declared[name])
			example, ok := h["example"]
			if !ok || example == nil {
				example = p.deref(h["schema"])["example"]
			}
			if example != nil {
				headers.Set(name, stringify(example))
			}
		}
	}
}

// securitySchemes lists declared schemes in document order.
func (p *openAPIParser) securitySchemes() []SecurityScheme {
	path := []string{"components", "securitySchemes"}
	declared := mapOf(mapOf(p.doc["components"])["securitySchemes"])
	if len(declared) == 0 {
		path = []string{"securityDefinitions"}
		declared = mapOf(p.doc["securityDefinitions"])
	}
	if len(declared) == 0 {
		return nil
	}

	out := make([]SecurityScheme, 0, len(declared))
	for _, name := range orderedKeys(declared, p.data, path...) {
		s := p.deref(declared[name])
		if s == nil {
			continue
		}
		out = append(out, SecurityScheme{
			Name:         name,
			Type:         stringOf(s["type"]),
			Scheme:       stringOf(s["scheme"]),
			BearerFormat: stringOf(s["bearerFormat"]),
			In:           stringOf(s["in"]),
			ParamName:    stringOf(s["name"]),
			Description:  stringOf(s["description"]),
		})
	}
	return out
}

// deref follows $ref chains for non-schema objects (parameters, responses,
// headers, path items). Chains longer than maxRefHops resolve to nil.
func (p *openAPIParser) deref(v interface{}) map[string]interface{} {
	m, _ := p.derefAt(v, nil)
	return m
}

// derefAt is deref that also tracks where the resolved object lives in the
// raw document, starting from loc. The location is nil when unknown.
func (p *openAPIParser) derefAt(v interface{}, loc []string) (map[string]interface{}, []string) {
	const maxRefHops = 16
	m := mapOf(v)
	for hops := 0; m != nil && hops < maxRefHops; hops++ {
		ref, ok := m["$ref"].(string)
		if !ok {
			return m, loc
		}
		resolved, ok := p.gen.Resolve(ref)
		if !ok {
			return nil, nil
		}
		m = mapOf(resolved)
		loc, _ = refSegments(ref)
	}
	if m != nil {
		if _, looping := m["$ref"]; looping {
			return nil, nil
		}
	}
	return m, loc
}

// keys returns the keys of m in document order when its location is known,
// sorted otherwise.
func (p *openAPIParser) keys(m map[string]interface{}, loc []string) []string {
	if loc != nil {
		return orderedKeys(m, p.data, loc...)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// at extends a document location without aliasing it. A nil location stays nil.
func at(loc []string, segs ...string) []string {
	if loc == nil {
		return nil
	}
	out := make([]string, 0, len(loc)+len(segs))
	return append(append(out, loc...), segs...)
}

// serializeExample renders an example as a request body for the media type.
func serializeExample(contentType string, example interface{}) string {
	if example == nil {
		return ""
	}
	if s, ok := example.(string); ok {
		return s
	}
	if contentType == "application/x-www-form-urlencoded" {
		if m, ok := example.(map[string]interface{}); ok {
			form := url.Values{}
			for k, v := range m {
				form.Set(k, stringify(v))
			}
			return form.Encode()
		}
	}
	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// stringify renders a JSON scalar the way it would appear in a header.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func mapOf(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

// init registers the OpenAPI importer.
func init() {
	RegisterImporter(&OpenAPIImporter{})
}
