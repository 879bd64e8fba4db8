package portability

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specimport/pkg/canonical"
)

func TestParsePostman_SingleRequestDefaults(t *testing.T) {
	data := `{"info":{"name":"X"},"item":[{"name":"","request":{"method":"get","url":"https://a.com/x?q=1"}}]}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	require.Len(t, c.Requests, 1)

	req := c.Requests[0]
	assert.Equal(t, "X", c.Name)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://a.com/x?q=1", req.URL)
	assert.Equal(t, "GET https://a.com/x?q=1", req.Name)
	assert.NotEmpty(t, req.ID)
}

func TestParsePostman_MissingName(t *testing.T) {
	_, err := ParsePostman([]byte(`{"info":{},"item":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "info.name")

	_, err = ParsePostman([]byte(`{"info":`))
	require.Error(t, err)
	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FormatPostman, ie.Format)
}

func TestParsePostman_FolderFlattening(t *testing.T) {
	data := `{
		"info": {"name": "Nested"},
		"item": [
			{"name": "root", "request": {"url": "https://a.com/root"}},
			{"name": "folder", "item": [
				{"name": "child", "request": {"url": "https://a.com/child"}},
				{"name": "sub", "item": [
					{"name": "deep", "request": {"url": "https://a.com/deep"}},
					{"name": "empty folder", "item": []}
				]}
			]},
			{"name": "last", "request": {"url": "https://a.com/last"}}
		]
	}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)

	names := make([]string, 0, len(c.Requests))
	for _, r := range c.Requests {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"root", "child", "deep", "last"}, names)
}

// nest wraps a single request in depth folders.
func nest(depth int) string {
	item := `{"name":"leaf","request":{"url":"https://a.com/leaf"}}`
	for i := 0; i < depth; i++ {
		item = fmt.Sprintf(`{"name":"f%d","item":[%s]}`, i, item)
	}
	return `{"info":{"name":"N"},"item":[` + item + `]}`
}

func TestParsePostman_NestingDoesNotAffectCount(t *testing.T) {
	for _, depth := range []int{0, 1, 5, 40} {
		c, err := ParsePostman([]byte(nest(depth)))
		require.NoError(t, err)
		assert.Len(t, c.Requests, 1, "depth %d", depth)
	}
}

func TestParsePostman_URLShapes(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"string", `"{{baseUrl}}/users"`, "{{baseUrl}}/users"},
		{"raw object", `{"raw": "https://a.com/x", "host": ["ignored"]}`, "https://a.com/x"},
		{"structured", `{"protocol": "http", "host": ["api", "example", "com"], "port": "8080", "path": ["v1", "users"]}`, "http://api.example.com:8080/v1/users"},
		{"structured numeric port", `{"protocol": "https", "host": ["h"], "port": 9443, "path": ["a"]}`, "https://h:9443/a"},
		{"structured without path", `{"protocol": "https", "host": ["h", "io"]}`, "https://h.io"},
		{"structured string host", `{"host": "{{host}}", "path": "ping"}`, "https://{{host}}/ping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"info":{"name":"U"},"item":[{"name":"r","request":{"url":` + tt.url + `}}]}`
			c, err := ParsePostman([]byte(data))
			require.NoError(t, err)
			require.Len(t, c.Requests, 1)
			assert.Equal(t, tt.want, c.Requests[0].URL)
		})
	}
}

func TestParsePostman_RequestAsString(t *testing.T) {
	c, err := ParsePostman([]byte(`{"info":{"name":"S"},"item":[{"name":"short","request":"https://a.com/s"}]}`))
	require.NoError(t, err)
	require.Len(t, c.Requests, 1)
	assert.Equal(t, "GET", c.Requests[0].Method)
	assert.Equal(t, "https://a.com/s", c.Requests[0].URL)
}

func TestParsePostman_Headers(t *testing.T) {
	data := `{"info":{"name":"H"},"item":[{"name":"r","request":{"method":"post","url":"https://a.com","header":[
		{"key":"Accept","value":"text/plain"},
		{"key":"X-Disabled","value":"1","disabled":true},
		{"key":"X-Empty","value":""},
		{"key":"","value":"orphan"},
		{"key":"X-Trace","value":"abc"},
		{"key":"Accept","value":"application/json"}
	]}}]}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	require.Len(t, c.Requests, 1)
	assert.Equal(t, canonical.Headers{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Trace", Value: "abc"},
	}, c.Requests[0].Headers)
}

func TestParsePostman_Bodies(t *testing.T) {
	data := `{"info":{"name":"B"},"item":[
		{"name":"raw","request":{"method":"POST","url":"https://a.com","body":{"mode":"raw","raw":"{\"a\":1}","options":{"raw":{"language":"json"}}}}},
		{"name":"form","request":{"method":"POST","url":"https://a.com","body":{"mode":"formdata","formdata":[
			{"key":"a","value":"1"},{"key":"b","value":"2","disabled":true},{"key":"f","type":"file"}
		]}}},
		{"name":"graphql","request":{"method":"POST","url":"https://a.com","body":{"mode":"graphql"}}}
	]}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	require.Len(t, c.Requests, 3)

	raw := c.Requests[0].Body
	require.NotNil(t, raw)
	assert.Equal(t, canonical.BodyRaw, raw.Mode)
	assert.Equal(t, `{"a":1}`, raw.Raw)
	assert.Equal(t, "application/json", raw.ContentType)

	form := c.Requests[1].Body
	require.NotNil(t, form)
	assert.Equal(t, canonical.BodyFormData, form.Mode)
	assert.Equal(t, []canonical.FormField{{Key: "a", Value: "1"}, {Key: "f", Type: "file"}}, form.Form)

	assert.Nil(t, c.Requests[2].Body)
}

func TestParsePostman_MalformedItemsSkipped(t *testing.T) {
	data := `{"info":{"name":"M"},"item":[
		{"name":"ok","request":{"url":"https://a.com/ok"}},
		{"name":"bad header","request":{"url":"https://a.com","header":"oops"}},
		{"name":"no url","request":{"method":"GET"}},
		42,
		{"name":"also ok","request":{"url":{"raw":"https://a.com/ok2"}}}
	]}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	require.Len(t, c.Requests, 2)
	assert.Equal(t, "ok", c.Requests[0].Name)
	assert.Equal(t, "also ok", c.Requests[1].Name)
	assert.Len(t, c.Warnings, 3)
}

func TestParsePostman_CountNeverExceedsLeaves(t *testing.T) {
	var items []string
	for i := 0; i < 30; i++ {
		switch i % 3 {
		case 0:
			items = append(items, fmt.Sprintf(`{"name":"r%d","request":{"url":"https://a.com/%d"}}`, i, i))
		case 1:
			items = append(items, fmt.Sprintf(`{"name":"bad%d","request":{"method":7}}`, i))
		default:
			items = append(items, fmt.Sprintf(`{"name":"f%d","item":[{"name":"c%d","request":{"url":"/c"}}]}`, i, i))
		}
	}
	data := `{"info":{"name":"Many"},"item":[` + strings.Join(items, ",") + `]}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	// 30 leaves in total, 10 of them malformed.
	assert.LessOrEqual(t, len(c.Requests), 30)
	assert.Len(t, c.Requests, 20)
}

func TestParsePostman_AuthAndVariables(t *testing.T) {
	data := `{
		"info": {"name": "A", "description": {"content": "desc"}},
		"auth": {"type": "bearer", "bearer": [{"key": "token", "value": "{{token}}"}]},
		"variable": [
			{"key": "baseUrl", "value": "https://api.example.com"},
			{"key": "api_token", "value": "x"},
			{"key": "count", "value": 3}
		],
		"item": [{"name":"r","request":{"url":"{{baseUrl}}/me","auth":{"type":"apikey"}}}]
	}`

	c, err := ParsePostman([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "desc", c.Description)
	assert.Equal(t, "bearer", c.Auth["type"])
	assert.Equal(t, "apikey", c.Requests[0].Auth["type"])

	require.Len(t, c.Variables, 2)
	assert.False(t, c.Variables[0].IsSecret)
	assert.True(t, c.Variables[1].IsSecret)
	assert.Len(t, c.Warnings, 1)
}

func TestParsePostman_IDsStable(t *testing.T) {
	c, err := ParsePostman([]byte(`{"info":{"name":"I"},"item":[{"id":"fixed","name":"r","request":{"url":"/a"}},{"name":"r2","request":{"url":"/b"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "fixed", c.Requests[0].ID)
	assert.NotEqual(t, c.Requests[0].ID, c.Requests[1].ID)
}

func TestPostmanImporter_Document(t *testing.T) {
	doc, err := (&PostmanImporter{}).Import([]byte(`{"info":{"name":"D"},"item":[]}`))
	require.NoError(t, err)
	assert.Equal(t, FormatPostman, doc.Format)
	require.NotNil(t, doc.Collection)
	assert.Empty(t, doc.Collection.Requests)

	out, err := json.Marshal(doc.Collection)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"requests":[]`)
}
