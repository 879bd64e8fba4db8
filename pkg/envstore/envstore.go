// Package envstore persists imported environment variables.
package envstore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
)

// ErrExists is returned when saving to an environment name that is taken.
// Callers pick a free name with UniqueName first.
var ErrExists = errors.New("environment already exists")

// ErrNotFound is returned when reading an unknown environment.
var ErrNotFound = errors.New("environment not found")

// Record is one variable to store.
type Record struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Secret bool   `json:"secret" yaml:"secret"`

	// Global records belong to no single environment. Imports always write
	// environment-scoped records.
	Global bool `json:"global" yaml:"global"`
}

// Store persists named environments.
type Store interface {
	// Save creates environment with records. It fails with ErrExists when
	// the name is taken.
	Save(ctx context.Context, environment string, records []Record) error
	// Names lists existing environment names, sorted.
	Names(ctx context.Context) ([]string, error)
}

// UniqueName returns base when it is free, otherwise the first of
// "base 1", "base 2", ... not present in existing.
func UniqueName(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + " " + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	envs map[string][]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{envs: make(map[string][]Record)}
}

// Save stores a copy of records under environment.
func (s *MemoryStore) Save(ctx context.Context, environment string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.envs[environment]; exists {
		return ErrExists
	}
	cp := make([]Record, len(records))
	copy(cp, records)
	s.envs[environment] = cp
	return nil
}

// Names lists stored environments, sorted.
func (s *MemoryStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.envs))
	for name := range s.envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the records of environment.
func (s *MemoryStore) Get(environment string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.envs[environment]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]Record, len(records))
	copy(cp, records)
	return cp, nil
}
