package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/specimport/pkg/portability"
)

// expandInputs turns file arguments into paths. Arguments containing glob
// metacharacters are expanded with doublestar ("docs/**/*.json"); a pattern
// that matches nothing is an error. Duplicates are dropped, order is kept.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		paths = append(paths, clean)
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

// readInput reads one input file with a friendly not-found message.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf(`file not found: %s

Suggestions:
  • Check the file path is correct
  • Quote glob patterns so the shell does not expand them`, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// formatImportError adds an actionable hint to structural import failures.
func formatImportError(err error, path string) error {
	switch {
	case errors.Is(err, portability.ErrYAMLNotSupported), errors.Is(err, portability.ErrUnsupportedFormat):
		return fmt.Errorf(`%s: %w

YAML documents are not supported. Convert the file to JSON first, e.g.:
  yq -o=json '.' %s > %s.json`, path, err, path, strings.TrimSuffix(path, filepath.Ext(path)))

	case errors.Is(err, portability.ErrUnrecognizedFormat):
		return fmt.Errorf(`%s: %w

Supported inputs:
  • Postman Collection v2.x (info + item)
  • OpenAPI 3.x / Swagger 2.0 (JSON)
  • Postman environment export (*.postman_environment.json)`, path, err)

	default:
		return fmt.Errorf("%s: import failed: %w", path, err)
	}
}
