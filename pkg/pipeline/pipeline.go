// Package pipeline wires the import stages together: classify and parse a
// file, reconcile authentication, build request specs, derive session names
// and hand the results to a session creator in small batches.
//
// Everything up to CreateSessions is pure and synchronous. CreateSessions is
// the only stage that blocks; it honours ctx between batches.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/specimport/internal/id"
	"github.com/getmockd/specimport/pkg/auth"
	"github.com/getmockd/specimport/pkg/canonical"
	"github.com/getmockd/specimport/pkg/logging"
	"github.com/getmockd/specimport/pkg/portability"
	"github.com/getmockd/specimport/pkg/requestspec"
)

// Defaults for the session hand-off.
const (
	DefaultBatchSize  = 5
	DefaultBatchPause = 200 * time.Millisecond
)

// Pipeline runs imports. A zero Pipeline is not usable; call New.
type Pipeline struct {
	logger     *slog.Logger
	filter     *Filter
	batchSize  int
	batchPause time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.Component(logger, "pipeline")
	}
}

// WithFilter restricts Prepare to requests the filter matches.
func WithFilter(f *Filter) Option {
	return func(p *Pipeline) {
		p.filter = f
	}
}

// WithBatchSize sets how many sessions are created concurrently. Values
// below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.batchSize = n
		}
	}
}

// WithBatchPause sets the minimum interval between batch starts. Zero
// disables pausing; negative values are ignored.
func WithBatchPause(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.batchPause = d
		}
	}
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:     logging.Component(nil, "pipeline"),
		batchSize:  DefaultBatchSize,
		batchPause: DefaultBatchPause,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BatchSize returns the configured batch size.
func (p *Pipeline) BatchSize() int { return p.batchSize }

// Loaded is a parsed input file.
type Loaded struct {
	// RunID identifies this import in logs and sinks.
	RunID    string
	Filename string
	*portability.ImportResult
}

// Collection returns the parsed collection, or nil for environment files.
func (l *Loaded) Collection() *portability.Collection {
	if l == nil || l.Document == nil {
		return nil
	}
	return l.Document.Collection
}

// Environment returns the parsed environment, or nil for collections.
func (l *Loaded) Environment() *portability.Environment {
	if l == nil || l.Document == nil {
		return nil
	}
	return l.Document.Environment
}

// Load classifies and parses one file. Structural failures abort the file and
// are returned as *portability.ImportError; per-item problems are logged and
// kept on the document's warnings.
func (p *Pipeline) Load(data []byte, filename string) (*Loaded, error) {
	runID := id.ULID()
	log := p.logger.With("run", runID, "file", filename)

	result, err := portability.Import(data, filename)
	if err != nil {
		log.Debug("import rejected", "error", err)
		return nil, err
	}

	for _, w := range result.Document.Warnings() {
		log.Debug("item skipped", "reason", w)
	}
	log.Info("file loaded",
		"format", result.Detection.Type,
		"confidence", result.Detection.Confidence,
		"warnings", len(result.Document.Warnings()))

	return &Loaded{RunID: runID, Filename: filename, ImportResult: result}, nil
}

// Prepared is one request ready to become a session.
type Prepared struct {
	Name string
	Spec canonical.Spec

	// Request is the request after authentication was applied.
	Request canonical.Request

	// Original is the request as parsed.
	Original canonical.Request
}

// Skipped is a request whose spec could not be built.
type Skipped struct {
	Request canonical.Request
	Err     error
}

// Plan is the output of Prepare.
type Plan struct {
	Collection string
	Items      []Prepared
	Skipped    []Skipped

	// Filtered counts requests the filter excluded.
	Filtered int
}

// Prepare reconciles auth and builds a spec for every request of c. The
// hostname override comes from cfg; a nil cfg means no auth and no override.
// Requests whose URL cannot be resolved are skipped, never fatal.
func (p *Pipeline) Prepare(c *portability.Collection, cfg auth.Config) (*Plan, error) {
	if c == nil {
		return nil, fmt.Errorf("prepare: no collection")
	}
	cfg = auth.Normalize(cfg)
	if cfg != nil {
		if err := auth.Validate(cfg); err != nil {
			return nil, fmt.Errorf("prepare: %w", err)
		}
	}

	var hostname string
	if cfg != nil {
		hostname = cfg.Host()
	}

	plan := &Plan{Collection: c.Name}
	for _, original := range c.Requests {
		if p.filter != nil {
			ok, err := p.filter.Match(original)
			if err != nil {
				p.logger.Debug("filter failed", "request", original.ID, "error", err)
			}
			if !ok {
				plan.Filtered++
				continue
			}
		}

		reconciled := auth.Apply(original, cfg)
		spec, err := requestspec.Build(reconciled, hostname)
		if err != nil {
			p.logger.Debug("request skipped", "request", original.ID, "url", original.URL, "error", err)
			plan.Skipped = append(plan.Skipped, Skipped{Request: original, Err: err})
			continue
		}

		plan.Items = append(plan.Items, Prepared{
			Name:     requestspec.SessionName(original.Method, original.URL),
			Spec:     *spec,
			Request:  reconciled,
			Original: original,
		})
	}

	attrs := []any{"collection", plan.Collection, "items", len(plan.Items), "skipped", len(plan.Skipped)}
	if p.filter != nil {
		attrs = append(attrs, "filter", p.filter.String(), "filtered", plan.Filtered)
	}
	p.logger.Info("plan ready", attrs...)
	return plan, nil
}
