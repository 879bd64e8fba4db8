package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/specimport/internal/id"
	"github.com/getmockd/specimport/pkg/canonical"
)

// fileRecord is the on-disk YAML layout of one session.
type fileRecord struct {
	ID         string    `yaml:"id"`
	Collection string    `yaml:"collection"`
	Name       string    `yaml:"name"`
	CreatedAt  time.Time `yaml:"createdAt"`
	Raw        string    `yaml:"raw"`
	Spec       specInfo  `yaml:"spec"`
	Source     string    `yaml:"source"`
}

type specInfo struct {
	Method string `yaml:"method"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Path   string `yaml:"path"`
	Query  string `yaml:"query,omitempty"`
	TLS    bool   `yaml:"tls"`
	URL    string `yaml:"url"`
}

// FileStore writes each session to <dir>/<collection>/<name>-<id>.yaml.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Create writes sess as a YAML document.
func (s *FileStore) Create(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.ID == "" {
		sess.ID = id.ULID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	rec := fileRecord{
		ID:         sess.ID,
		Collection: sess.Collection,
		Name:       sess.Name,
		CreatedAt:  sess.CreatedAt.UTC(),
		Raw:        RenderRaw(sess.Spec),
		Spec: specInfo{
			Method: sess.Spec.Method,
			Host:   sess.Spec.Host,
			Port:   sess.Spec.Port,
			Path:   sess.Spec.Path,
			Query:  sess.Spec.Query,
			TLS:    sess.Spec.TLS,
			URL:    sess.Spec.URL,
		},
		Source: sess.Original.URL,
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Join(s.dir, slug(sess.Collection, "collection"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}
	path := filepath.Join(dir, slug(sess.Name, "session")+"-"+strings.ToLower(sess.ID)+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Load reads every session file of a collection, oldest first. Loaded
// sessions carry the request line and target fields only; headers and body
// live in the raw text returned alongside.
func (s *FileStore) Load(collection string) ([]Session, []string, error) {
	dir := filepath.Join(s.dir, slug(collection, "collection"))
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, nil, err
	}

	recs := make([]fileRecord, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read session: %w", err)
		}
		var rec fileRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	sessions := make([]Session, len(recs))
	raws := make([]string, len(recs))
	for i, rec := range recs {
		sessions[i] = Session{
			ID:         rec.ID,
			Collection: rec.Collection,
			Name:       rec.Name,
			CreatedAt:  rec.CreatedAt,
			Spec: canonical.Spec{
				Method: rec.Spec.Method,
				Host:   rec.Spec.Host,
				Port:   rec.Spec.Port,
				Path:   rec.Spec.Path,
				Query:  rec.Spec.Query,
				TLS:    rec.Spec.TLS,
				URL:    rec.Spec.URL,
			},
		}
		raws[i] = rec.Raw
	}
	return sessions, raws, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug lowercases s and reduces it to [a-z0-9-]; empty results use fallback.
func slug(s, fallback string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	if out == "" {
		return fallback
	}
	return out
}
