package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/specimport/pkg/cli/internal/output"
	"github.com/getmockd/specimport/pkg/portability"
)

// DetectOutput is one row of `specimport detect`.
type DetectOutput struct {
	File       string                     `json:"file"`
	Format     portability.Format         `json:"format"`
	Confidence float64                    `json:"confidence"`
	Details    string                     `json:"details"`
	Supported  bool                       `json:"supported"`
	Message    string                     `json:"message,omitempty"`
	Requests   int                        `json:"requests,omitempty"`
	Variables  int                        `json:"variables,omitempty"`
	Auth       *portability.AuthDetection `json:"auth,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <file|glob>...",
	Short: "Classify input files and report detected authentication",
	Long: `Classify each input as a Postman collection, an OpenAPI document or a
Postman environment, say whether it can be imported and list the
authentication the document declares. Nothing is written.`,
	Example: `  specimport detect api.json
  specimport detect 'exports/**/*.json' --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	paths, err := expandInputs(args)
	if err != nil {
		return err
	}

	rows := make([]DetectOutput, 0, len(paths))
	for _, path := range paths {
		rows = append(rows, detectFile(path))
	}

	return printResult(cmd, rows, func() {
		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "FILE\tFORMAT\tCONFIDENCE\tSUPPORTED\tITEMS\tAUTH\tDETAILS")
		for _, r := range rows {
			supported := "yes"
			if !r.Supported {
				supported = "no"
			}
			items := "-"
			switch {
			case r.Error != "":
			case r.Format.IsCollection():
				items = fmt.Sprintf("%d requests", r.Requests)
			case r.Format == portability.FormatEnvironment:
				items = fmt.Sprintf("%d variables", r.Variables)
			}
			details := r.Details
			if r.Error != "" {
				details = r.Error
			} else if r.Message != "" {
				details = r.Message
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
				r.File, title(string(r.Format)), r.Confidence, supported, items, describeAuth(r.Auth), details)
		}
		_ = w.Flush()
	})
}

func detectFile(path string) DetectOutput {
	row := DetectOutput{File: path}
	data, err := readInput(path)
	if err != nil {
		row.Format = portability.FormatUnknown
		row.Error = firstLine(err.Error())
		return row
	}

	filename := filepath.Base(path)
	detection := portability.Classify(data, filename)
	support := portability.CheckSupport(detection, filename)
	row.Format = detection.Type
	row.Confidence = detection.Confidence
	row.Details = detection.Details
	row.Supported = support.Supported
	row.Message = support.Message
	if !support.Supported {
		return row
	}

	result, err := portability.Import(data, filename)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	if c := result.Document.Collection; c != nil {
		row.Requests = len(c.Requests)
		row.Auth = &result.Auth
	}
	if e := result.Document.Environment; e != nil {
		row.Variables = len(e.Variables)
	}
	return row
}

func describeAuth(a *portability.AuthDetection) string {
	if a == nil || !a.HasAuth {
		return "-"
	}
	if len(a.Schemes) > 0 {
		names := make([]string, 0, len(a.Schemes))
		for _, s := range a.Schemes {
			names = append(names, title(s.Kind))
		}
		return strings.Join(names, ", ")
	}
	return title(a.AuthType)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
