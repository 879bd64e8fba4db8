package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Strings and the batch size merge when non-zero. BatchPause also merges an
// explicit zero from a file. Booleans merge only when explicitly set, or when
// true for programmatic configs.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	mergeString(target, sourceType, "hostname", &target.Hostname, source.Hostname)
	mergeString(target, sourceType, "sessionsUrl", &target.SessionsURL, source.SessionsURL)
	mergeString(target, sourceType, "apiKey", &target.APIKey, source.APIKey)
	mergeString(target, sourceType, "outputDir", &target.OutputDir, source.OutputDir)
	mergeString(target, sourceType, "envDir", &target.EnvDir, source.EnvDir)
	mergeString(target, sourceType, "logLevel", &target.LogLevel, source.LogLevel)
	mergeString(target, sourceType, "logFormat", &target.LogFormat, source.LogFormat)
	mergeString(target, sourceType, "logFile", &target.LogFile, source.LogFile)

	if source.BatchSize != 0 {
		target.BatchSize = source.BatchSize
		target.Sources["batchSize"] = sourceType
	}
	if source.BatchPause != 0 || source.SetFields["batchPause"] {
		target.BatchPause = source.BatchPause
		target.Sources["batchPause"] = sourceType
	}
	if boolIsSet(source, "json") {
		target.JSON = source.JSON
		target.Sources["json"] = sourceType
	}
}

func mergeString(target *CLIConfig, sourceType, key string, dst *string, value string) {
	if value == "" {
		return
	}
	*dst = value
	target.Sources[key] = sourceType
}

// boolIsSet reports whether a boolean field identified by its YAML key was
// explicitly set in the source config. Without SetFields only true counts.
func boolIsSet(cfg *CLIConfig, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "json":
		return cfg.JSON
	}
	return false
}
