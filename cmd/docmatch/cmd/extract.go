package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/spf13/cobra"
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <doc>",
	Short: "Extract invoice identifier candidates from one document",
	Long: `Run preprocessing, OCR, and identifier extraction on a single document
and print the candidate list. Useful for tuning label phrases and the
digit window before relying on compare.

With --text the input is a file containing OCR text.

Examples:
  docmatch extract scan.jpg
  docmatch extract scan.jpg --format json
  docmatch extract ocr-dump.txt --text --label "Rechnungsnummer"`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		if format != outputFormatJSON && format != outputFormatText {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json)", format)
		}

		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		textMode, _ := cmd.Flags().GetBool("text")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		var doc *pipeline.DocumentResult
		if textMode {
			pl, err := buildTextPipeline(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = pl.Close() }()
			doc = pl.ExtractText(string(data))
		} else {
			pl, err := buildImagePipeline(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = pl.Close() }()
			doc, err = pl.ExtractImage(cmd.Context(), data)
			if err != nil {
				return err
			}
		}

		out, err := renderDocument(doc, format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, out, outputFile)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	extractCmd.Flags().StringP("output", "o", "", "write result to file instead of stdout")
	extractCmd.Flags().Bool("text", false, "treat input as a file containing OCR text")
	addPolicyFlags(extractCmd)
}

// renderDocument formats a single-document extraction result.
func renderDocument(doc *pipeline.DocumentResult, format string) (string, error) {
	if format == outputFormatJSON {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	}

	var out strings.Builder
	if len(doc.Candidates) == 0 {
		out.WriteString("No identifier candidates found\n")
	} else {
		out.WriteString(fmt.Sprintf("%d candidate(s):\n", len(doc.Candidates)))
		for _, c := range doc.Candidates {
			if c.Label != "" {
				out.WriteString(fmt.Sprintf("  %s (%s: %q, raw %s)\n", c.Value, c.Source, c.Label, c.Raw))
			} else {
				out.WriteString(fmt.Sprintf("  %s (%s, raw %s)\n", c.Value, c.Source, c.Raw))
			}
		}
	}
	out.WriteString("text:\n")
	for _, line := range strings.Split(strings.TrimRight(doc.RawText, "\n"), "\n") {
		out.WriteString("  " + line + "\n")
	}
	return out.String(), nil
}
