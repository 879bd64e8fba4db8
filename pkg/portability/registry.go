package portability

import (
	"sort"
	"sync"
)

// Registry manages importers for different formats.
type Registry struct {
	mu        sync.RWMutex
	importers map[Format]Importer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[Format]Importer)}
}

// defaultRegistry is the global registry instance.
var defaultRegistry = NewRegistry()

// RegisterImporter adds an importer to the default registry.
func RegisterImporter(importer Importer) {
	defaultRegistry.RegisterImporter(importer)
}

// GetImporter returns the importer for a format from the default registry.
func GetImporter(format Format) Importer {
	return defaultRegistry.GetImporter(format)
}

// ListImporters returns all registered importers from the default registry.
func ListImporters() []Importer {
	return defaultRegistry.ListImporters()
}

// RegisterImporter adds an importer to the registry.
func (r *Registry) RegisterImporter(importer Importer) {
	if importer == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.importers[importer.Format()] = importer
}

// GetImporter returns the importer for a format.
func (r *Registry) GetImporter(format Format) Importer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.importers[format]
}

// ListImporters returns all registered importers ordered by format name.
func (r *Registry) ListImporters() []Importer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Importer, 0, len(r.importers))
	for _, imp := range r.importers {
		result = append(result, imp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Format() < result[j].Format()
	})
	return result
}
