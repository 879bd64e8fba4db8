package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/specimport/pkg/cli/internal/output"
)

// printResult outputs a command result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to stdout. Human-readable prose (progress messages, hints) must go to stderr
// or be omitted entirely. textFn is called only in text mode.
func printResult(cmd *cobra.Command, data any, textFn func()) error {
	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), data)
	}
	textFn()
	return nil
}

var titleCaser = cases.Title(language.English)

// title renders identifiers such as "openapi" or "apikey" for humans.
func title(s string) string {
	if s == "" {
		return "-"
	}
	return titleCaser.String(s)
}
