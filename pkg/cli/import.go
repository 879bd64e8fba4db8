package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/specimport/pkg/auth"
	"github.com/getmockd/specimport/pkg/cli/internal/output"
	"github.com/getmockd/specimport/pkg/envstore"
	"github.com/getmockd/specimport/pkg/pipeline"
	"github.com/getmockd/specimport/pkg/portability"
	"github.com/getmockd/specimport/pkg/session"
)

var (
	importAuth        string
	importAuthParams  []string
	importInteractive bool
	importFilter      string
	importCollection  string
	importDryRun      bool
)

// ImportOutput summarizes one imported file.
type ImportOutput struct {
	File        string             `json:"file"`
	Format      portability.Format `json:"format,omitempty"`
	Collection  string             `json:"collection,omitempty"`
	Environment string             `json:"environment,omitempty"`
	Requests    int                `json:"requests"`
	Created     int                `json:"created"`
	Failed      int                `json:"failed"`
	Skipped     int                `json:"skipped"`
	Filtered    int                `json:"filtered"`
	Variables   int                `json:"variables,omitempty"`
	Sink        string             `json:"sink,omitempty"`
	Sessions    []string           `json:"sessions,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Failures    []string           `json:"failures,omitempty"`
	Error       string             `json:"error,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import <file|glob>...",
	Short: "Import collections and environments as sessions",
	Long: `Import Postman collections and OpenAPI documents as replayable sessions,
and Postman environment exports as environment files.

Each request is reconciled with the chosen authentication, resolved against
the hostname override (templated {{host}} parts become the override, or
example.com without one) and handed to the session sink in small batches.

Session sinks, in order of preference:
  --sessions-url   POST each session to a sessions API
  --output-dir     write one YAML file per session
  (neither)        keep sessions in memory and print a summary`,
	Example: `  # Import with a bearer token against a staging host
  specimport import api.json --auth bearer --auth-param token=$TOKEN --hostname staging.local

  # Choose authentication interactively
  specimport import collection.json -i --output-dir sessions

  # Only GET requests from every export under docs/
  specimport import 'docs/**/*.json' --filter 'method == "GET"' --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.StringVar(&importAuth, "auth", "", "Authentication kind: none, apikey, bearer, basic, custom, detected")
	f.StringArrayVar(&importAuthParams, "auth-param", nil, "Authentication field as key=value (repeatable)")
	f.BoolVarP(&importInteractive, "interactive", "i", false, "Choose authentication interactively")
	f.StringVar(&importFilter, "filter", "", `Only import requests matching an expression, e.g. 'method == "GET"'`)
	f.StringVar(&importCollection, "collection", "", "Collection name (default: the document's name)")
	f.BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing")
	f.String("hostname", "", "Replace the host of every request URL")
	f.String("sessions-url", "", "Sessions API endpoint")
	f.String("output-dir", "", "Directory for session files")
	f.String("env-dir", "", "Directory for imported environments")
	f.Int("batch-size", pipeline.DefaultBatchSize, "Sessions created concurrently")
	f.Duration("batch-pause", pipeline.DefaultBatchPause, "Pause between batches")

	_ = importCmd.RegisterFlagCompletionFunc("auth", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return authKindNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	paths, err := expandInputs(args)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithBatchSize(cfg.BatchSize),
		pipeline.WithBatchPause(cfg.BatchPause),
	}
	if importFilter != "" {
		filter, err := pipeline.CompileFilter(importFilter)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithFilter(filter))
	}
	p := pipeline.New(opts...)
	creator, sink := sessionSink()

	results := make([]ImportOutput, 0, len(paths))
	var failed []string
	for _, path := range paths {
		res := importFile(cmd, p, creator, path)
		res.Sink = sink
		if res.Error != "" {
			failed = append(failed, path)
		}
		results = append(results, res)
		if commandContext(cmd).Err() != nil {
			break
		}
	}

	if err := printResult(cmd, results, func() { printImportText(cmd, results) }); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", len(failed), len(paths))
	}
	return nil
}

// sessionSink picks where sessions go, per the effective configuration.
func sessionSink() (session.Creator, string) {
	switch {
	case importDryRun:
		return nil, "dry-run"
	case cfg.SessionsURL != "":
		return session.NewHTTPCreator(cfg.SessionsURL, session.WithAPIKey(cfg.APIKey)), cfg.SessionsURL
	case cfg.OutputDir != "":
		store := session.NewFileStore(cfg.OutputDir)
		return store, store.Dir()
	default:
		return session.NewMemoryStore(), "memory"
	}
}

func importFile(cmd *cobra.Command, p *pipeline.Pipeline, creator session.Creator, path string) ImportOutput {
	res := ImportOutput{File: path}
	data, err := readInput(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	loaded, err := p.Load(data, filepath.Base(path))
	if err != nil {
		res.Error = formatImportError(err, path).Error()
		return res
	}
	res.Format = loaded.Detection.Type
	res.Warnings = loaded.Document.Warnings()

	if env := loaded.Environment(); env != nil {
		res.Environment = env.Name
		res.Variables = len(env.Variables)
		if importDryRun {
			return res
		}
		name, err := p.SaveEnvironment(commandContext(cmd), envstore.NewDotenvStore(cfg.EnvDir), env.Name, env.Variables)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Environment = name
		return res
	}

	collection := loaded.Collection()
	if importCollection != "" {
		collection.Name = importCollection
	}
	res.Collection = collection.Name
	res.Requests = len(collection.Requests)

	if importAuth == "" && !importInteractive && loaded.Auth.HasAuth {
		logger.Warn("document declares authentication; pass --auth or -i to apply credentials",
			"file", path, "detected", describeAuth(&loaded.Auth))
	}
	authCfg, err := resolveAuth(importInteractive, importAuth, importAuthParams, cfg.Hostname, loaded.Auth)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	plan, err := p.Prepare(collection, authCfg)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Filtered = plan.Filtered
	res.Skipped = len(plan.Skipped)
	for _, s := range plan.Skipped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s: %v", s.Request.Method, s.Request.URL, s.Err))
	}

	if creator == nil {
		for _, item := range plan.Items {
			res.Sessions = append(res.Sessions, item.Name)
		}
		return res
	}

	report, err := p.CreateSessions(commandContext(cmd), creator, plan)
	res.Created = report.Created
	res.Failed = report.Failed
	for _, o := range report.Outcomes {
		if o.Err != nil {
			res.Failures = append(res.Failures, o.Name+": "+o.Err.Error())
			continue
		}
		res.Sessions = append(res.Sessions, o.Name)
	}
	if err != nil {
		res.Error = "import interrupted: " + err.Error()
	}
	return res
}

func printImportText(cmd *cobra.Command, results []ImportOutput) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(out, "✗ %s\n  %s\n", r.File, strings.ReplaceAll(r.Error, "\n", "\n  "))
			continue
		}
		if r.Environment != "" {
			fmt.Fprintf(out, "✓ %s: environment %q with %d variable(s)\n", r.File, r.Environment, r.Variables)
			continue
		}

		fmt.Fprintf(out, "✓ %s: %s collection %q, %d request(s)\n", r.File, title(string(r.Format)), r.Collection, r.Requests)
		w := output.Table(out)
		fmt.Fprintf(w, "  created\t%d\n  failed\t%d\n  skipped\t%d\n", r.Created, r.Failed, r.Skipped)
		if r.Filtered > 0 {
			fmt.Fprintf(w, "  filtered\t%d\n", r.Filtered)
		}
		fmt.Fprintf(w, "  sink\t%s\n", r.Sink)
		_ = w.Flush()

		if importDryRun {
			for _, name := range r.Sessions {
				fmt.Fprintf(out, "  • %s\n", name)
			}
		}
		for _, f := range r.Failures {
			output.Warn(logWriter(cmd), "%s", f)
		}
		for _, warning := range r.Warnings {
			output.Warn(logWriter(cmd), "%s", warning)
		}
	}
}

// authKindNames lists the kinds accepted by --auth, for shell completion.
func authKindNames() []string {
	kinds := auth.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
