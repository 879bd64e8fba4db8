// Package cliconfig provides configuration types and loading for the specimport CLI.
package cliconfig

import "time"

// CLIConfig represents the complete configuration for the specimport CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (SPECIMPORT_*)
// 3. Local config file (.specimportrc.yaml in current directory, or --config)
// 4. Global config file ($XDG_CONFIG_HOME/specimport/config.yaml)
// 5. Default values (lowest priority)
type CLIConfig struct {
	// Hostname replaces the host of every imported URL when set.
	Hostname string `yaml:"hostname,omitempty" json:"hostname,omitempty"`

	// Session sinks. SessionsURL wins over OutputDir; with neither set,
	// sessions are kept in memory and only summarized.
	SessionsURL string `yaml:"sessionsUrl,omitempty" json:"sessionsUrl,omitempty"`
	APIKey      string `yaml:"apiKey,omitempty" json:"-"`
	OutputDir   string `yaml:"outputDir,omitempty" json:"outputDir,omitempty"`

	// EnvDir is where imported environments are written as .env files.
	EnvDir string `yaml:"envDir" json:"envDir"`

	// Hand-off pacing
	BatchSize  int           `yaml:"batchSize" json:"batchSize"`
	BatchPause time.Duration `yaml:"batchPause" json:"batchPause"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// Output settings
	JSON bool `yaml:"json" json:"json"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records the YAML keys present in a loaded file, so an
	// explicit false or zero can be told apart from an absent key.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)
