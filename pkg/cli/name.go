package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/specimport/pkg/requestspec"
)

// NameOutput is the result of `specimport name`.
type NameOutput struct {
	Name     string `json:"name"`
	Resolved string `json:"resolved"`
}

var nameCmd = &cobra.Command{
	Use:   "name <method> <url>",
	Short: "Show the session name and resolved URL for a request",
	Long: `Show the session name derived from a method and an authored URL, and the
URL the request would be sent to. Naming always uses the authored URL;
the resolved URL applies --hostname, or example.com for template variables.`,
	Example: `  specimport name get 'https://api.example.com/users?page=2'
  specimport name POST '{{baseUrl}}/v1/items' --hostname staging.local`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(strings.TrimSpace(args[0]))
		out := NameOutput{
			Name:     requestspec.SessionName(method, args[1]),
			Resolved: requestspec.ResolveURL(args[1], cfg.Hostname),
		}
		return printResult(cmd, out, func() {
			fmt.Fprintln(cmd.OutOrStdout(), out.Name)
			fmt.Fprintln(cmd.OutOrStdout(), out.Resolved)
		})
	},
}

func init() {
	rootCmd.AddCommand(nameCmd)
	nameCmd.Flags().String("hostname", "", "Replace the host of the URL")
}
