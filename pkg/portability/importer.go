package portability

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/getmockd/specimport/pkg/canonical"
)

// Sentinel errors wrapped by ImportError.
var (
	ErrYAMLNotSupported   = errors.New("YAML not supported")
	ErrUnsupportedFormat  = errors.New("format recognized but not supported")
	ErrUnrecognizedFormat = errors.New("unrecognized format")
)

// Importer parses one source format into a Document.
type Importer interface {
	// Import parses data in the importer's format.
	// The data should be the raw bytes of the source file.
	Import(data []byte) (*Document, error)

	// Format returns the format this importer handles.
	Format() Format
}

// Collection is a named group of canonical requests from one document.
type Collection struct {
	Format      Format `json:"format"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Version is the API version declared by the document (OpenAPI info.version).
	Version string `json:"version,omitempty"`

	// SpecVersion is the openapi/swagger version string.
	SpecVersion string `json:"specVersion,omitempty"`

	BaseURL  string              `json:"baseUrl,omitempty"`
	Requests []canonical.Request `json:"requests"`

	// Auth is the collection-level Postman auth block, unresolved.
	Auth map[string]interface{} `json:"auth,omitempty"`

	// SecuritySchemes are the OpenAPI securitySchemes / securityDefinitions.
	SecuritySchemes []SecurityScheme `json:"securitySchemes,omitempty"`

	// Variables are Postman collection variables.
	Variables []EnvironmentVariable `json:"variables,omitempty"`

	// Warnings are non-fatal issues: items skipped during extraction.
	Warnings []string `json:"warnings,omitempty"`
}

// Environment is a parsed Postman environment export.
type Environment struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Variables   []EnvironmentVariable `json:"variables"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// Document is the result of importing one file: exactly one of Collection or
// Environment is set.
type Document struct {
	Format      Format       `json:"format"`
	Collection  *Collection  `json:"collection,omitempty"`
	Environment *Environment `json:"environment,omitempty"`
}

// Warnings returns the non-fatal issues of whichever payload is set.
func (d *Document) Warnings() []string {
	switch {
	case d == nil:
		return nil
	case d.Collection != nil:
		return d.Collection.Warnings
	case d.Environment != nil:
		return d.Environment.Warnings
	}
	return nil
}

// ImportResult is returned by Import.
type ImportResult struct {
	Detection FileTypeResult `json:"detection"`
	Support   SupportResult  `json:"support"`
	Document  *Document      `json:"document"`

	// Auth is the detected authentication metadata for collections.
	Auth AuthDetection `json:"auth"`
}

// Import is a convenience function that classifies data, checks support and
// runs the matching importer. Any structural failure aborts the whole file.
func Import(data []byte, filename string) (*ImportResult, error) {
	detection := Classify(data, filename)
	support := CheckSupport(detection, filename)
	if !support.Supported {
		cause := support.Err()
		if detection.YAML {
			cause = ErrYAMLNotSupported
		}
		return nil, &ImportError{
			Format:  detection.Type,
			Message: support.Message,
			Cause:   cause,
		}
	}

	importer := GetImporter(detection.Type)
	if importer == nil {
		return nil, &ImportError{
			Format:  detection.Type,
			Message: "no importer available for format",
			Cause:   ErrUnsupportedFormat,
		}
	}

	doc, err := importer.Import(data)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Detection: detection,
		Support:   support,
		Document:  doc,
	}
	if doc.Collection != nil {
		result.Auth = DetectAuth(doc.Collection)
	}
	return result, nil
}

// ImportError represents a structural failure while importing a file.
type ImportError struct {
	Format  Format
	Line    int
	Column  int
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	msg := e.Message
	if e.Format != FormatUnknown && e.Format != "" {
		msg = string(e.Format) + ": " + msg
	}
	if e.Line > 0 {
		if e.Column > 0 {
			msg = msg + " (line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + ")"
		} else {
			msg = msg + " (line " + strconv.Itoa(e.Line) + ")"
		}
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// jsonError wraps a JSON syntax error with its position.
func jsonError(format Format, message string, data []byte, err error) *ImportError {
	ie := &ImportError{Format: format, Message: message, Cause: err}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		ie.Line, ie.Column = lineColumn(data, syntaxErr.Offset)
	}
	return ie
}

// lineColumn finds the line and column number for a byte offset.
func lineColumn(data []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	for i := int64(0); i < offset && int(i) < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
