package cliconfig

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBatchSize is how many sessions are created concurrently.
const DefaultBatchSize = 5

// DefaultBatchPause is the minimum interval between batches.
const DefaultBatchPause = 200 * time.Millisecond

// DefaultEnvDir is where environments are stored when nothing else is set.
const DefaultEnvDir = "environments"

// MaxBatchSize caps BatchSize so a misconfigured run cannot flood a sink.
const MaxBatchSize = 100

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		EnvDir:     DefaultEnvDir,
		BatchSize:  DefaultBatchSize,
		BatchPause: DefaultBatchPause,
		LogLevel:   "info",
		LogFormat:  "text",
		Sources:    make(map[string]string),
	}

	for _, key := range []string{"envDir", "batchSize", "batchPause", "logLevel", "logFormat", "json"} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Validate checks ranges and enumerations.
func (c *CLIConfig) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batchSize %d is out of range (1-%d)", c.BatchSize, MaxBatchSize)
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("batchPause %s must not be negative", c.BatchPause)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logLevel %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logFormat %q is not one of text, json", c.LogFormat)
	}
	if c.SessionsURL != "" && !strings.HasPrefix(c.SessionsURL, "http://") && !strings.HasPrefix(c.SessionsURL, "https://") {
		return fmt.Errorf("sessionsUrl %q must be an http(s) URL", c.SessionsURL)
	}
	if strings.ContainsAny(c.Hostname, "/?#") {
		return fmt.Errorf("hostname %q must be a bare host[:port]", c.Hostname)
	}
	return nil
}
