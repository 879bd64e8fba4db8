package envstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envExt     = ".env"
	secretExt  = ".secret.env"
	globalFile = "globals.env"
)

// DotenvStore keeps each environment in <dir>/<name>.env. Secret variables
// go to a sibling <name>.secret.env so they can be excluded from version
// control; global records are merged into <dir>/globals.env.
type DotenvStore struct {
	dir string
}

// NewDotenvStore creates a store rooted at dir.
func NewDotenvStore(dir string) *DotenvStore {
	return &DotenvStore{dir: dir}
}

// Save writes environment to disk.
func (s *DotenvStore) Save(ctx context.Context, environment string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base, err := s.fileBase(environment)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Name == "" {
			return fmt.Errorf("environment %q: empty variable name", environment)
		}
	}
	if _, err := os.Stat(base + envExt); err == nil {
		return ErrExists
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create environment directory: %w", err)
	}

	plain := make(map[string]string)
	secret := make(map[string]string)
	global := make(map[string]string)
	for _, r := range records {
		switch {
		case r.Global:
			global[r.Name] = r.Value
		case r.Secret:
			secret[r.Name] = r.Value
		default:
			plain[r.Name] = r.Value
		}
	}

	// The plain file is written even when empty so the name is reserved.
	if err := writeEnvFile(base+envExt, plain, 0o644); err != nil {
		return fmt.Errorf("failed to write environment: %w", err)
	}
	if len(secret) > 0 {
		if err := writeEnvFile(base+secretExt, secret, 0o600); err != nil {
			return fmt.Errorf("failed to write secrets: %w", err)
		}
	}
	if len(global) > 0 {
		if err := s.mergeGlobals(global); err != nil {
			return err
		}
	}
	return nil
}

func (s *DotenvStore) mergeGlobals(values map[string]string) error {
	path := filepath.Join(s.dir, globalFile)
	existing, err := readEnvFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read globals: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	for k, v := range values {
		existing[k] = v
	}
	if err := writeEnvFile(path, existing, 0o644); err != nil {
		return fmt.Errorf("failed to write globals: %w", err)
	}
	return nil
}

// Names lists environments by their file names.
func (s *DotenvStore) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environment directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == globalFile || strings.HasSuffix(name, secretExt) || !strings.HasSuffix(name, envExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, envExt))
	}
	sort.Strings(names)
	return names, nil
}

// Read loads an environment, secrets included, sorted by name.
func (s *DotenvStore) Read(environment string) ([]Record, error) {
	base, err := s.fileBase(environment)
	if err != nil {
		return nil, err
	}
	plain, err := readEnvFile(base + envExt)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	secret, err := readEnvFile(base + secretExt)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}

	records := make([]Record, 0, len(plain)+len(secret))
	for k, v := range plain {
		records = append(records, Record{Name: k, Value: v})
	}
	for k, v := range secret {
		records = append(records, Record{Name: k, Value: v, Secret: true})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Globals returns the merged global variables.
func (s *DotenvStore) Globals() (map[string]string, error) {
	values, err := readEnvFile(filepath.Join(s.dir, globalFile))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	return values, err
}

// writeEnvFile writes values with escaped names. perm is applied even when
// the file already exists.
func writeEnvFile(path string, values map[string]string, perm os.FileMode) error {
	encoded, err := encodeKeys(values)
	if err != nil {
		return err
	}
	content, err := godotenv.Marshal(encoded)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.WriteString(content + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// readEnvFile is the inverse of writeEnvFile.
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return decodeKeys(values)
}

// fileBase maps an environment name to its path without extension.
func (s *DotenvStore) fileBase(environment string) (string, error) {
	name := strings.TrimSpace(environment)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid environment name %q", environment)
	}
	if name+envExt == globalFile || strings.HasSuffix(name+envExt, secretExt) {
		return "", fmt.Errorf("reserved environment name %q", environment)
	}
	return filepath.Join(s.dir, name), nil
}
