// Package logging provides structured logging configuration for specimport.
//
// It wraps log/slog so every package logs the same way. Libraries accept a
// *slog.Logger through an option and fall back to Nop when none is given;
// only the CLI builds a real logger.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//	log := logging.Component(logger, "pipeline")
//	log.Info("import finished", "created", 12, "failed", 1)
//
// # Output
//
// Records go to Output in text or JSON. When Tee is set, the same records are
// also written there as JSON, which is how --log-file keeps a machine-readable
// trace next to the human one.
package logging
