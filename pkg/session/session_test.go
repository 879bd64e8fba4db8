package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specimport/pkg/canonical"
)

func sampleSpec() canonical.Spec {
	return canonical.Spec{
		Method:  "POST",
		Host:    "api.example.com",
		Port:    443,
		Path:    "/users",
		Query:   "a=1",
		Headers: canonical.Headers{{Name: "Content-Type", Value: "application/json"}},
		Body:    `{"x":1}`,
		TLS:     true,
		URL:     "https://api.example.com/users?a=1",
	}
}

// ============================================================================
// RenderRaw Tests
// ============================================================================

func TestRenderRaw(t *testing.T) {
	want := "POST /users?a=1 HTTP/1.1\r\n" +
		"Host: api.example.com\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 7\r\n" +
		"\r\n" +
		`{"x":1}`
	assert.Equal(t, want, RenderRaw(sampleSpec()))
}

func TestRenderRaw_NonDefaultPortAndNoBody(t *testing.T) {
	spec := canonical.Spec{
		Host:    "localhost",
		Port:    8080,
		Headers: canonical.Headers{{Name: "host", Value: "ignored"}, {Name: "Accept", Value: "*/*"}},
	}
	want := "GET / HTTP/1.1\r\nHost: localhost:8080\r\nAccept: */*\r\n\r\n"
	assert.Equal(t, want, RenderRaw(spec))

	spec = canonical.Spec{Method: "GET", Host: "a.com", Port: 80, Path: "/x"}
	assert.Equal(t, "GET /x HTTP/1.1\r\nHost: a.com\r\n\r\n", RenderRaw(spec))

	spec = canonical.Spec{Method: "GET", Host: "a.com", Port: 80, TLS: true, Path: "/x"}
	assert.Contains(t, RenderRaw(spec), "Host: a.com:80\r\n")
}

func TestRenderRaw_KeepsExplicitContentLength(t *testing.T) {
	spec := sampleSpec()
	spec.Headers.Set("content-length", "7")
	raw := RenderRaw(spec)
	assert.Contains(t, raw, "content-length: 7\r\n")
	assert.NotContains(t, raw, "Content-Length")
}

// ============================================================================
// MemoryStore Tests
// ============================================================================

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, Session{ID: "b", Collection: "API", Name: "GET /b", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.Create(ctx, Session{ID: "a", Collection: "API", Name: "GET /a", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.Create(ctx, Session{ID: "c", Collection: "Other", Name: "GET /c", CreatedAt: base}))
	require.NoError(t, store.Create(ctx, Session{Collection: "API", Name: "generated"}))

	assert.Equal(t, 4, store.Len())
	assert.Equal(t, []string{"API", "Other"}, store.Collections())

	api := store.List("API")
	require.Len(t, api, 3)
	assert.Equal(t, "a", api[0].ID)
	assert.Equal(t, "b", api[1].ID)
	assert.NotEmpty(t, api[2].ID)
	assert.False(t, api[2].CreatedAt.IsZero())

	assert.Len(t, store.List(""), 4)

	got, err := store.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "GET /c", got.Name)
	got.Name = "mutated"
	again, _ := store.Get("c")
	assert.Equal(t, "GET /c", again.Name)

	assert.True(t, store.Delete("c"))
	assert.False(t, store.Delete("c"))
	_, err = store.Get("c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Create(context.Background(), Session{Collection: "c"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	assert.ErrorIs(t, store.Create(ctx, Session{}), context.Canceled)
	assert.Zero(t, store.Len())
}

func TestCreatorFunc(t *testing.T) {
	var got Session
	var c Creator = CreatorFunc(func(_ context.Context, s Session) error {
		got = s
		return nil
	})
	require.NoError(t, c.Create(context.Background(), Session{Name: "x"}))
	assert.Equal(t, "x", got.Name)
}

// ============================================================================
// FileStore Tests
// ============================================================================

func TestFileStore_CreateAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, Session{
		ID:         "01HZY",
		Collection: "Pet Store",
		Name:       "POST /users",
		Spec:       sampleSpec(),
		Original:   canonical.Request{URL: "{{baseUrl}}/users?a=1"},
		CreatedAt:  base.Add(time.Minute),
	}))
	require.NoError(t, store.Create(ctx, Session{
		ID:         "01HZX",
		Collection: "Pet Store",
		Name:       "GET /",
		Spec:       canonical.Spec{Method: "GET", Host: "a.com", Port: 80, Path: "/"},
		CreatedAt:  base,
	}))

	path := filepath.Join(dir, "pet-store", "post-users-01hzy.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "collection: Pet Store")
	assert.Contains(t, string(data), "{{baseUrl}}/users?a=1")

	sessions, raws, err := store.Load("Pet Store")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "01HZX", sessions[0].ID)
	assert.Equal(t, "01HZY", sessions[1].ID)
	assert.Equal(t, "api.example.com", sessions[1].Spec.Host)
	assert.Equal(t, "a=1", sessions[1].Spec.Query)
	assert.Equal(t, RenderRaw(sampleSpec()), raws[1])

	_, err = os.Stat(filepath.Join(dir, "pet-store", "get-01hzx.yaml"))
	assert.NoError(t, err)
}

func TestFileStore_EmptyNames(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Create(context.Background(), Session{ID: "X1", Name: "!!!"}))

	_, err := os.Stat(filepath.Join(dir, "collection", "session-x1.yaml"))
	assert.NoError(t, err)

	sessions, _, err := store.Load("")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestFileStore_LoadMissingCollection(t *testing.T) {
	sessions, raws, err := NewFileStore(t.TempDir()).Load("nope")
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Empty(t, raws)
}

// ============================================================================
// HTTPCreator Tests
// ============================================================================

func TestHTTPCreator(t *testing.T) {
	var got createRequest
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		apiKey = r.Header.Get(APIKeyHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewHTTPCreator(server.URL+"/sessions", WithAPIKey("k1"), WithTimeout(5*time.Second))
	err := c.Create(context.Background(), Session{Collection: "API", Name: "POST /users", Spec: sampleSpec()})
	require.NoError(t, err)

	assert.Equal(t, "k1", apiKey)
	assert.Equal(t, createRequest{
		Collection: "API",
		Name:       "POST /users",
		Raw:        RenderRaw(sampleSpec()),
		Host:       "api.example.com",
		Port:       443,
		TLS:        true,
	}, got)
}

func TestHTTPCreator_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"duplicate","message":"session exists"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom\n"))
		}
	}))
	defer server.Close()

	err := NewHTTPCreator(server.URL+"/json").Create(context.Background(), Session{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "duplicate", apiErr.ErrorCode)
	assert.Equal(t, "session exists", apiErr.Error())

	err = NewHTTPCreator(server.URL+"/plain", WithHTTPClient(server.Client())).Create(context.Background(), Session{})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "server returned status 500: boom", apiErr.Message)
}

func TestHTTPCreator_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	err := NewHTTPCreator(endpoint).Create(context.Background(), Session{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "connection_error", apiErr.ErrorCode)
}
