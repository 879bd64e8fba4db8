package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/specimport/pkg/envstore"
	"github.com/getmockd/specimport/pkg/portability"
)

// maxNameAttempts bounds retries when another writer takes the chosen name
// between Names and Save.
const maxNameAttempts = 3

// SaveEnvironment stores vars under name, or under the first free
// "name N" when name is taken. Records are always environment-scoped.
// It returns the name actually used.
func (p *Pipeline) SaveEnvironment(ctx context.Context, store envstore.Store, name string, vars []portability.EnvironmentVariable) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Imported Environment"
	}

	records := make([]envstore.Record, 0, len(vars))
	for _, v := range vars {
		records = append(records, envstore.Record{
			Name:   v.Key,
			Value:  v.Value,
			Secret: v.IsSecret,
			Global: false,
		})
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		existing, err := store.Names(ctx)
		if err != nil {
			return "", fmt.Errorf("list environments: %w", err)
		}
		target := envstore.UniqueName(name, existing)

		err = store.Save(ctx, target, records)
		if errors.Is(err, envstore.ErrExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("save environment %q: %w", target, err)
		}
		p.logger.Info("environment saved", "name", target, "variables", len(records))
		return target, nil
	}
	return "", fmt.Errorf("save environment %q: %w", name, envstore.ErrExists)
}
