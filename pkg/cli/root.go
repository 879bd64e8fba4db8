package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/specimport/pkg/cliconfig"
	"github.com/getmockd/specimport/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	logLevel   string
	logFormat  string
	logFile    string
	configPath string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// Effective settings, resolved before every command runs.
var (
	cfg       *cliconfig.CLIConfig
	logger    = logging.Nop()
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "specimport",
	Short: "Import Postman collections, OpenAPI documents and environments as replayable sessions",
	Long: `specimport turns API descriptions into replayable HTTP request sessions.

It reads Postman Collection v2.x exports, OpenAPI 3.x / Swagger 2.0 documents
(JSON only) and Postman environment exports, applies the authentication you
choose, resolves every URL against an optional hostname override and writes
one session per request.

Configuration can be provided via flags, SPECIMPORT_* environment variables,
a local .specimportrc.yaml or $XDG_CONFIG_HOME/specimport/config.yaml.`,
	SilenceUsage:       true,
	SilenceErrors:      true, // We handle errors in Execute()
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (default: text)")
	pf.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	pf.StringVar(&configPath, "config", "", "Config file (default: .specimportrc.yaml, then global config)")
}

// flagBindings maps flags that override config keys. Commands that do not
// define a flag simply never match it.
var flagBindings = []struct {
	name  string
	apply func(cmd *cobra.Command, c *cliconfig.CLIConfig) error
}{
	{"json", func(cmd *cobra.Command, c *cliconfig.CLIConfig) error {
		c.JSON = jsonOutput
		c.SetFields["json"] = true
		return nil
	}},
	{"log-level", func(_ *cobra.Command, c *cliconfig.CLIConfig) error { c.LogLevel = logLevel; return nil }},
	{"log-format", func(_ *cobra.Command, c *cliconfig.CLIConfig) error { c.LogFormat = logFormat; return nil }},
	{"log-file", func(_ *cobra.Command, c *cliconfig.CLIConfig) error { c.LogFile = logFile; return nil }},
	{"hostname", stringFlag("hostname", func(c *cliconfig.CLIConfig, v string) { c.Hostname = v })},
	{"sessions-url", stringFlag("sessions-url", func(c *cliconfig.CLIConfig, v string) { c.SessionsURL = v })},
	{"output-dir", stringFlag("output-dir", func(c *cliconfig.CLIConfig, v string) { c.OutputDir = v })},
	{"env-dir", stringFlag("env-dir", func(c *cliconfig.CLIConfig, v string) { c.EnvDir = v })},
	{"batch-size", func(cmd *cobra.Command, c *cliconfig.CLIConfig) error {
		n, err := cmd.Flags().GetInt("batch-size")
		c.BatchSize = n
		return err
	}},
	{"batch-pause", func(cmd *cobra.Command, c *cliconfig.CLIConfig) error {
		d, err := cmd.Flags().GetDuration("batch-pause")
		c.BatchPause = d
		c.SetFields["batchPause"] = true
		return err
	}},
}

func stringFlag(name string, set func(*cliconfig.CLIConfig, string)) func(*cobra.Command, *cliconfig.CLIConfig) error {
	return func(cmd *cobra.Command, c *cliconfig.CLIConfig) error {
		v, err := cmd.Flags().GetString(name)
		set(c, v)
		return err
	}
}

// setup resolves configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = cliconfig.ConfigPathFromEnv()
	}
	loaded, err := cliconfig.LoadAll(path)
	if err != nil {
		return err
	}

	flags := &cliconfig.CLIConfig{SetFields: map[string]bool{}}
	for _, b := range flagBindings {
		if f := cmd.Flags().Lookup(b.name); f == nil || !f.Changed {
			continue
		}
		if err := b.apply(cmd, flags); err != nil {
			return err
		}
	}
	cliconfig.MergeConfig(loaded, flags, cliconfig.SourceFlag)

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	jsonOutput = cfg.JSON

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logCfg.Tee = f
		logCloser = f
	}
	logger = logging.New(logCfg)
	logger.Debug("configuration resolved", "sources", cfg.Sources)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if logCloser != nil {
		err := logCloser.Close()
		logCloser = nil
		return err
	}
	return nil
}

// commandContext returns cmd's context, or Background when run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// logWriter is where human prose goes so stdout stays machine-readable.
func logWriter(cmd *cobra.Command) io.Writer { return cmd.ErrOrStderr() }
