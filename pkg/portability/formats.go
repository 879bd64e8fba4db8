package portability

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// Format represents a recognised import format.
type Format string

// Supported formats for import.
const (
	FormatUnknown     Format = "unknown"
	FormatPostman     Format = "postman"     // Postman Collection v2.x
	FormatOpenAPI     Format = "openapi"     // OpenAPI 3.x or Swagger 2.0 (JSON only)
	FormatEnvironment Format = "environment" // Postman environment export
)

// Confidence levels reported by Classify.
const (
	ConfidenceContent  = 0.95
	ConfidenceFilename = 0.6
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is a known format.
func (f Format) IsValid() bool {
	switch f {
	case FormatPostman, FormatOpenAPI, FormatEnvironment:
		return true
	default:
		return false
	}
}

// IsCollection reports whether the format yields requests rather than variables.
func (f Format) IsCollection() bool {
	return f == FormatPostman || f == FormatOpenAPI
}

// ParseFormat parses a format string into a Format type.
// Returns FormatUnknown for unrecognized format strings.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postman", "collection":
		return FormatPostman
	case "openapi", "swagger", "oas":
		return FormatOpenAPI
	case "environment", "env":
		return FormatEnvironment
	default:
		return FormatUnknown
	}
}

// AllFormats returns every recognised format.
func AllFormats() []Format {
	return []Format{FormatPostman, FormatOpenAPI, FormatEnvironment}
}

// FileTypeResult is the verdict of Classify.
type FileTypeResult struct {
	Type       Format  `json:"type"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details"`

	// YAML is set when the content failed JSON parsing but looks like YAML.
	YAML bool `json:"yaml,omitempty"`
}

// detector inspects a parsed JSON document and returns a verdict when it
// recognises the shape. Detectors are evaluated in order; the first hit wins.
type detector func(doc map[string]interface{}, data []byte, filename string) (FileTypeResult, bool)

var contentDetectors = []detector{
	detectPostmanCollection,
	detectOpenAPIDocument,
	detectEnvironmentExport,
}

// Classify inspects raw text and its filename and returns exactly one verdict.
// It never fails: malformed input resolves to FormatUnknown with a rationale.
func Classify(data []byte, filename string) FileTypeResult {
	data = stripBOM(data)
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		if looksLikeYAML(data) {
			return FileTypeResult{
				Type:    FormatUnknown,
				Details: "YAML content detected; YAML is not supported, convert the file to JSON",
				YAML:    true,
			}
		}
		return FileTypeResult{
			Type:    FormatUnknown,
			Details: "invalid JSON: " + err.Error(),
		}
	}

	if doc, ok := parsed.(map[string]interface{}); ok {
		for _, detect := range contentDetectors {
			if result, ok := detect(doc, data, filename); ok {
				return result
			}
		}
	}

	if result, ok := detectFromFilename(filename); ok {
		return result
	}

	return FileTypeResult{
		Type:    FormatUnknown,
		Details: "valid JSON but unrecognized format",
	}
}

func detectPostmanCollection(doc map[string]interface{}, _ []byte, _ string) (FileTypeResult, bool) {
	info, ok := doc["info"].(map[string]interface{})
	if !ok {
		return FileTypeResult{}, false
	}
	if _, ok := info["name"].(string); !ok {
		return FileTypeResult{}, false
	}

	schema, _ := info["schema"].(string)
	schemaMatch := strings.Contains(schema, "postman")
	_, hasItems := doc["item"].([]interface{})
	_, hasPostmanID := info["_postman_id"]
	_, hasVersion := info["version"]

	if schemaMatch || (hasItems && (hasPostmanID || hasVersion)) {
		return FileTypeResult{
			Type:       FormatPostman,
			Confidence: ConfidenceContent,
			Details:    "Postman collection (info.name with collection schema)",
		}, true
	}
	return FileTypeResult{}, false
}

func detectOpenAPIDocument(doc map[string]interface{}, data []byte, _ string) (FileTypeResult, bool) {
	if v, ok := doc["openapi"].(string); ok && strings.HasPrefix(v, "3.") {
		return FileTypeResult{
			Type:       FormatOpenAPI,
			Confidence: ConfidenceContent,
			Details:    "OpenAPI " + v + " specification",
		}, true
	}
	if v, ok := doc["swagger"].(string); ok && strings.HasPrefix(v, "2.") {
		return FileTypeResult{
			Type:       FormatOpenAPI,
			Confidence: ConfidenceContent,
			Details:    "Swagger " + v + " specification",
		}, true
	}

	_, hasInfo := doc["info"].(map[string]interface{})
	paths, hasPaths := doc["paths"].(map[string]interface{})
	if !hasInfo || !hasPaths {
		return FileTypeResult{}, false
	}
	// Only the first declared path is inspected; map order is not document
	// order, so recover it from the raw bytes.
	first, ok := firstPathItem(data, paths)
	if !ok {
		return FileTypeResult{}, false
	}
	for _, method := range httpMethods {
		if _, ok := first[method]; ok {
			return FileTypeResult{
				Type:       FormatOpenAPI,
				Confidence: ConfidenceContent,
				Details:    "OpenAPI-like document (info and paths with operations)",
			}, true
		}
	}
	return FileTypeResult{}, false
}

func detectEnvironmentExport(doc map[string]interface{}, _ []byte, filename string) (FileTypeResult, bool) {
	if !looksLikeEnvironment(doc, filename) {
		return FileTypeResult{}, false
	}
	return FileTypeResult{
		Type:       FormatEnvironment,
		Confidence: ConfidenceContent,
		Details:    "Postman environment export",
	}, true
}

var (
	environmentNameTokens = []string{"environment", "_env", "-env", ".env", "env."}
	collectionNameTokens  = []string{"postman_collection", "collection", "postman"}
	specNameTokens        = []string{"openapi", "swagger", "api-spec", "api_spec", "apispec"}
)

func detectFromFilename(filename string) (FileTypeResult, bool) {
	name := strings.ToLower(filepath.Base(filename))
	if name == "" || name == "." {
		return FileTypeResult{}, false
	}

	verdict := func(f Format, why string) (FileTypeResult, bool) {
		return FileTypeResult{Type: f, Confidence: ConfidenceFilename, Details: why}, true
	}
	if containsAny(name, environmentNameTokens) {
		return verdict(FormatEnvironment, "filename suggests a Postman environment")
	}
	if containsAny(name, collectionNameTokens) {
		return verdict(FormatPostman, "filename suggests a Postman collection")
	}
	if containsAny(name, specNameTokens) {
		return verdict(FormatOpenAPI, "filename suggests an OpenAPI specification")
	}
	if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
		return verdict(FormatOpenAPI, "YAML extension suggests an OpenAPI specification")
	}
	return FileTypeResult{}, false
}

var (
	yamlDocSeparator = regexp.MustCompile(`(?m)^---\s*$`)
	yamlKeyLine      = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z_$][\w$.-]*\s*:(\s|$)`)
	yamlListMarker   = regexp.MustCompile(`(?m)^\s*-\s+\S`)

	yamlHeuristics = []*regexp.Regexp{yamlDocSeparator, yamlKeyLine, yamlListMarker}
)

// looksLikeYAML reports whether text that failed JSON parsing has the shape of
// a YAML document: at least two structural markers and no leading brace.
func looksLikeYAML(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return false
	}
	hits := 0
	for _, re := range yamlHeuristics {
		if re.Match(trimmed) {
			hits++
		}
	}
	return hits >= 2
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM drops a leading UTF-8 byte order mark, which editors on Windows
// like to prepend to JSON exports.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// SupportResult is the judgment of CheckSupport.
type SupportResult struct {
	Supported bool `json:"supported"`

	// Recognized distinguishes "known but unsupported" (YAML) from
	// "not recognised at all".
	Recognized bool   `json:"recognized"`
	Message    string `json:"message,omitempty"`
}

// Err returns the sentinel matching an unsupported judgment, or nil.
func (s SupportResult) Err() error {
	switch {
	case s.Supported:
		return nil
	case s.Recognized:
		return ErrUnsupportedFormat
	default:
		return ErrUnrecognizedFormat
	}
}

// CheckSupport maps a classification verdict and filename to a support judgment.
// OpenAPI content carried in a .yaml/.yml file is recognised but unsupported.
func CheckSupport(result FileTypeResult, filename string) SupportResult {
	if result.YAML {
		return SupportResult{
			Recognized: true,
			Message:    "YAML files are not supported; convert the file to JSON and import again",
		}
	}
	if result.Type == FormatUnknown || !result.Type.IsValid() {
		msg := result.Details
		if msg == "" {
			msg = "unrecognized file format"
		}
		return SupportResult{Message: msg}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if result.Type == FormatOpenAPI && (ext == ".yaml" || ext == ".yml") {
		return SupportResult{
			Recognized: true,
			Message:    "YAML OpenAPI specifications are not supported; export the specification as JSON",
		}
	}
	return SupportResult{Supported: true, Recognized: true}
}
