package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// compareCmd represents the compare command.
var compareCmd = &cobra.Command{
	Use:   "compare <doc1> <doc2>",
	Short: "Compare two scanned documents by invoice identifier",
	Long: `Compare two documents and decide whether they carry the same invoice
identifier. Inputs are image files (JPEG, PNG, BMP) or single-page PDFs
wrapping a scanned image. With --text the inputs are files containing
OCR text, bypassing image processing entirely.

Examples:
  docmatch compare scan1.jpg scan2.jpg
  docmatch compare a.pdf b.png --format json
  docmatch compare a.txt b.txt --text --output result.json`,
	Args:         cobra.ExactArgs(2),
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

		var res *pipeline.CompareResult

		if textMode {
			t1, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			t2, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			pl, err := buildTextPipeline(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = pl.Close() }()

			res = pl.CompareTexts(string(t1), string(t2))
		} else {
			d1, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			d2, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			pl, err := buildImagePipeline(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = pl.Close() }()

			res, err = pl.CompareImages(cmd.Context(), d1, d2)
			if err != nil {
				return err
			}
		}

		out, err := renderResult(res, format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, out, outputFile)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	compareCmd.Flags().StringP("output", "o", "", "write result to file instead of stdout")
	compareCmd.Flags().Bool("text", false, "treat inputs as files containing OCR text")
	addPolicyFlags(compareCmd)
}

// renderResult formats a comparison result in the requested output format.
func renderResult(res *pipeline.CompareResult, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		return pipeline.ToJSON(res)
	case outputFormatText:
		return pipeline.ToPlainText(res)
	default:
		return "", errors.New("unknown output format")
	}
}

// writeOutput writes the rendered result to the output file or stdout.
func writeOutput(cmd *cobra.Command, content, outputFile string) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(content), 0o644); err != nil { //nolint:gosec // result files are not sensitive
			return fmt.Errorf("write output file: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), content)
	return err
}
