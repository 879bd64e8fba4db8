package cliconfig

import (
	"os"
	"strconv"
	"time"
)

// Environment variable names
const (
	EnvHostname    = "SPECIMPORT_HOSTNAME"
	EnvSessionsURL = "SPECIMPORT_SESSIONS_URL"
	EnvAPIKey      = "SPECIMPORT_API_KEY"
	EnvOutputDir   = "SPECIMPORT_OUTPUT_DIR"
	EnvEnvDir      = "SPECIMPORT_ENV_DIR"
	EnvBatchSize   = "SPECIMPORT_BATCH_SIZE"
	EnvBatchPause  = "SPECIMPORT_BATCH_PAUSE"
	EnvLogLevel    = "SPECIMPORT_LOG_LEVEL"
	EnvLogFormat   = "SPECIMPORT_LOG_FORMAT"
	EnvLogFile     = "SPECIMPORT_LOG_FILE"
	EnvJSON        = "SPECIMPORT_JSON"
	EnvConfig      = "SPECIMPORT_CONFIG"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment; unparsable
// numbers and durations are ignored.
func LoadEnvConfig(cfg *CLIConfig) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	strs := []struct {
		env string
		key string
		dst *string
	}{
		{EnvHostname, "hostname", &cfg.Hostname},
		{EnvSessionsURL, "sessionsUrl", &cfg.SessionsURL},
		{EnvAPIKey, "apiKey", &cfg.APIKey},
		{EnvOutputDir, "outputDir", &cfg.OutputDir},
		{EnvEnvDir, "envDir", &cfg.EnvDir},
		{EnvLogLevel, "logLevel", &cfg.LogLevel},
		{EnvLogFormat, "logFormat", &cfg.LogFormat},
		{EnvLogFile, "logFile", &cfg.LogFile},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
			cfg.Sources[s.key] = SourceEnv
		}
	}

	if v := os.Getenv(EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchSize = n
			cfg.Sources["batchSize"] = SourceEnv
		}
	}

	if v := os.Getenv(EnvBatchPause); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BatchPause = d
			cfg.Sources["batchPause"] = SourceEnv
		}
	}

	if v := os.Getenv(EnvJSON); v != "" {
		cfg.JSON = v == "true" || v == "1" || v == "yes"
		cfg.Sources["json"] = SourceEnv
	}
}

// ConfigPathFromEnv returns the explicit config path from the environment.
func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfig)
}
