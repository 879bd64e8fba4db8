package portability

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// EnvironmentVariable is one key/value record from an environment export or
// a collection's variable list.
type EnvironmentVariable struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
	Type    string `json:"type,omitempty"`

	// IsSecret is advisory: callers may override it.
	IsSecret bool `json:"isSecret"`
}

// secretKeywords is matched against lowercased variable keys.
var secretKeywords = []string{
	"token", "key", "secret", "password", "auth", "authorization", "bearer",
	"api_key", "apikey", "client_secret", "access_token", "refresh_token",
	"private_key", "credential", "pass", "pwd",
}

// opaqueTokenPattern matches values that look like generated credentials.
var opaqueTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.]{20,}$`)

// IsSecretVariable infers whether a variable holds a credential, from its key
// or from the shape of its value.
func IsSecretVariable(key, value string) bool {
	lower := strings.ToLower(key)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return opaqueTokenPattern.MatchString(value)
}

type postmanEnvironmentValue struct {
	Key     interface{} `json:"key"`
	Value   interface{} `json:"value"`
	Enabled *bool       `json:"enabled,omitempty"`
	Type    string      `json:"type,omitempty"`
}

// EnvironmentImporter imports Postman environment exports.
type EnvironmentImporter struct{}

// Import parses a Postman environment export.
func (i *EnvironmentImporter) Import(data []byte) (*Document, error) {
	env, err := ParseEnvironment(data)
	if err != nil {
		return nil, err
	}
	return &Document{Format: FormatEnvironment, Environment: env}, nil
}

// Format returns FormatEnvironment.
func (i *EnvironmentImporter) Format() Format {
	return FormatEnvironment
}

// ParseEnvironment parses a Postman environment export. It fails when the
// name is missing, values is not a list, or no variable survives filtering.
func ParseEnvironment(data []byte) (*Environment, error) {
	data = stripBOM(data)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, jsonError(FormatEnvironment, "failed to parse environment", data, err)
	}

	var nameValue interface{}
	_ = json.Unmarshal(raw["name"], &nameValue)
	name, ok := nameValue.(string)
	if !ok {
		return nil, &ImportError{Format: FormatEnvironment, Message: "environment name is missing or not a string"}
	}

	var values []json.RawMessage
	if err := json.Unmarshal(raw["values"], &values); err != nil || values == nil {
		return nil, &ImportError{Format: FormatEnvironment, Message: "environment values must be a list"}
	}

	env := &Environment{
		Name:        name,
		Description: describe(raw["description"]),
	}
	for idx, rawValue := range values {
		v, ok := environmentVariable(rawValue)
		if !ok {
			env.Warnings = append(env.Warnings, fmt.Sprintf("values[%d]: skipped, key and value must be strings", idx))
			continue
		}
		env.Variables = append(env.Variables, v)
	}

	if len(env.Variables) == 0 {
		return nil, &ImportError{Format: FormatEnvironment, Message: "environment contains no valid variables"}
	}
	return env, nil
}

func environmentVariable(data json.RawMessage) (EnvironmentVariable, bool) {
	var entry postmanEnvironmentValue
	if err := json.Unmarshal(data, &entry); err != nil {
		return EnvironmentVariable{}, false
	}
	key, ok := entry.Key.(string)
	if !ok {
		return EnvironmentVariable{}, false
	}
	value, ok := entry.Value.(string)
	if !ok {
		return EnvironmentVariable{}, false
	}
	return newVariable(key, value, entry.Enabled == nil || *entry.Enabled, entry.Type), true
}

func newVariable(key, value string, enabled bool, typ string) EnvironmentVariable {
	if typ == "" {
		typ = "default"
	}
	return EnvironmentVariable{
		Key:      key,
		Value:    value,
		Enabled:  enabled,
		Type:     typ,
		IsSecret: IsSecretVariable(key, value),
	}
}

// IsPostmanEnvironment reports whether data is a Postman environment export.
// The filename must mention "env"; this keeps the check stricter than the
// collection and specification detectors.
func IsPostmanEnvironment(data []byte, filename string) bool {
	data = stripBOM(data)
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	return looksLikeEnvironment(doc, filename)
}

func looksLikeEnvironment(doc map[string]interface{}, filename string) bool {
	if _, ok := doc["name"].(string); !ok {
		return false
	}
	if _, ok := doc["values"].([]interface{}); !ok {
		return false
	}
	scope, _ := doc["_postman_variable_scope"].(string)
	_, exported := doc["_postman_exported_at"].(string)
	if scope != "environment" && !exported {
		return false
	}
	name := strings.ToLower(filepath.Base(filename))
	return strings.Contains(name, "environment") || strings.Contains(name, "env")
}

// describe flattens a Postman description, which is either a string or an
// object with a content field.
func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Content
	}
	return ""
}

func init() {
	RegisterImporter(&EnvironmentImporter{})
}
