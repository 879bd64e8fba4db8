package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/specimport/pkg/cli/internal/output"
	"github.com/getmockd/specimport/pkg/cli/internal/parse"
	"github.com/getmockd/specimport/pkg/envstore"
	"github.com/getmockd/specimport/pkg/pipeline"
	"github.com/getmockd/specimport/pkg/portability"
)

var (
	envName        string
	envOnly        string
	envInteractive bool
)

// EnvImportOutput is the result of `specimport env import`.
type EnvImportOutput struct {
	File        string         `json:"file"`
	Environment string         `json:"environment"`
	Directory   string         `json:"directory"`
	Variables   []EnvVarOutput `json:"variables"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// EnvVarOutput describes one stored variable. Secret values are never printed.
type EnvVarOutput struct {
	Name   string `json:"name"`
	Secret bool   `json:"secret"`
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Import and list environments",
}

var envImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store variables from an environment export or a collection",
	Long: `Store the variables of a Postman environment export, or the collection
variables of a Postman collection, as an environment file.

Variables that look like credentials are written to a separate, owner-only
secret file. When the environment name is taken, " 1", " 2", ... is appended.`,
	Example: `  specimport env import dev.postman_environment.json
  specimport env import collection.json --name "Shop vars" --only host,api_token
  specimport env import dev.postman_environment.json -i`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvImport,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := envstore.NewDotenvStore(cfg.EnvDir).Names(commandContext(cmd))
		if err != nil {
			return err
		}
		if names == nil {
			names = []string{}
		}
		return printResult(cmd, names, func() {
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No environments in %s\n", cfg.EnvDir)
				return
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envImportCmd, envListCmd)

	envCmd.PersistentFlags().String("env-dir", "", "Directory for environment files")
	envImportCmd.Flags().StringVar(&envName, "name", "", "Environment name (default: the file's environment or collection name)")
	envImportCmd.Flags().StringVar(&envOnly, "only", "", "Comma-separated variable names to keep")
	envImportCmd.Flags().BoolVarP(&envInteractive, "interactive", "i", false, "Pick variables interactively")
}

// promptVariables lets the user pick variables. Tests replace it.
var promptVariables = runVariableForm

func runVariableForm(vars []portability.EnvironmentVariable) ([]portability.EnvironmentVariable, error) {
	opts := make([]huh.Option[int], 0, len(vars))
	for i, v := range vars {
		label := v.Key
		if v.IsSecret {
			label += " (secret)"
		}
		opts = append(opts, huh.NewOption(label, i).Selected(v.Enabled))
	}

	var picked []int
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[int]().
			Title("Which variables should be stored?").
			Options(opts...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}

	out := make([]portability.EnvironmentVariable, 0, len(picked))
	for _, i := range picked {
		out = append(out, vars[i])
	}
	return out, nil
}

func runEnvImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := readInput(path)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	loaded, err := p.Load(data, filepath.Base(path))
	if err != nil {
		return formatImportError(err, path)
	}

	var name string
	var vars []portability.EnvironmentVariable
	switch {
	case loaded.Environment() != nil:
		name, vars = loaded.Environment().Name, loaded.Environment().Variables
	case loaded.Collection() != nil:
		name, vars = loaded.Collection().Name, loaded.Collection().Variables
	}
	if envName != "" {
		name = envName
	}

	vars, err = selectVariables(vars)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return errors.New("no variables to store")
	}

	stored, err := p.SaveEnvironment(commandContext(cmd), envstore.NewDotenvStore(cfg.EnvDir), name, vars)
	if err != nil {
		return err
	}

	out := EnvImportOutput{
		File:        path,
		Environment: stored,
		Directory:   cfg.EnvDir,
		Warnings:    loaded.Document.Warnings(),
	}
	for _, v := range vars {
		out.Variables = append(out.Variables, EnvVarOutput{Name: v.Key, Secret: v.IsSecret})
	}

	return printResult(cmd, out, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "Stored environment %q in %s\n", out.Environment, out.Directory)
		w := output.Table(cmd.OutOrStdout())
		for _, v := range out.Variables {
			kind := "plain"
			if v.Secret {
				kind = "secret"
			}
			fmt.Fprintf(w, "  %s\t%s\n", v.Name, kind)
		}
		_ = w.Flush()
		for _, warning := range out.Warnings {
			output.Warn(logWriter(cmd), "%s", warning)
		}
	})
}

// selectVariables applies --only or the interactive picker.
func selectVariables(vars []portability.EnvironmentVariable) ([]portability.EnvironmentVariable, error) {
	if envInteractive {
		return promptVariables(vars)
	}
	keep := parse.SplitTrim(envOnly, ",")
	if len(keep) == 0 {
		return vars, nil
	}

	wanted := make(map[string]bool, len(keep))
	for _, k := range keep {
		wanted[k] = true
	}
	var out []portability.EnvironmentVariable
	for _, v := range vars {
		if wanted[v.Key] {
			out = append(out, v)
			delete(wanted, v.Key)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, k := range keep {
			if wanted[k] {
				missing = append(missing, k)
			}
		}
		return nil, fmt.Errorf("unknown variable(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}
