package cmd

import (
	"time"

	"github.com/scandocs/docmatch/internal/config"
	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/spf13/cobra"
)

// addPolicyFlags registers the identifier and preprocessing flags shared by
// the compare and extract commands.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().Int("id-length", 0, "canonical identifier digit count (overrides config)")
	cmd.Flags().Int("min-digits", 0, "minimum accepted digit-run length")
	cmd.Flags().Int("max-digits", 0, "maximum accepted digit-run length")
	cmd.Flags().Int("suffix-length", 0, "trailing digits compared by fuzzy matching")
	cmd.Flags().Bool("fuzzy", true, "enable fuzzy suffix matching")
	cmd.Flags().StringSlice("label", nil, "vendor label phrase to search (repeatable)")
	cmd.Flags().String("ocr-langs", "", "Tesseract language list (e.g. eng+deu)")
	cmd.Flags().Int("ocr-timeout", 0, "OCR timeout per image in seconds")
	cmd.Flags().Float64("contrast", 0, "contrast boost factor")
	cmd.Flags().Float64("upscale", 0, "upscale factor before OCR")
	cmd.Flags().Bool("no-pdf", false, "reject PDF inputs")
}

// applyPolicyFlags overlays changed CLI flags on top of the pipeline config.
func applyPolicyFlags(cmd *cobra.Command, pCfg *pipeline.Config) {
	if cmd.Flags().Changed("id-length") {
		n, _ := cmd.Flags().GetInt("id-length")
		pCfg.Extract.CanonicalLength = n
	}
	if cmd.Flags().Changed("min-digits") {
		n, _ := cmd.Flags().GetInt("min-digits")
		pCfg.Extract.MinDigits = n
	}
	if cmd.Flags().Changed("max-digits") {
		n, _ := cmd.Flags().GetInt("max-digits")
		pCfg.Extract.MaxDigits = n
	}
	if cmd.Flags().Changed("suffix-length") {
		n, _ := cmd.Flags().GetInt("suffix-length")
		pCfg.Match.SuffixLength = n
	}
	if cmd.Flags().Changed("fuzzy") {
		b, _ := cmd.Flags().GetBool("fuzzy")
		pCfg.Match.FuzzyEnabled = b
	}
	if cmd.Flags().Changed("label") {
		labels, _ := cmd.Flags().GetStringSlice("label")
		pCfg.Extract.Labels = labels
	}
	if cmd.Flags().Changed("ocr-langs") {
		langs, _ := cmd.Flags().GetString("ocr-langs")
		pCfg.OCR.Languages = langs
	}
	if cmd.Flags().Changed("ocr-timeout") {
		n, _ := cmd.Flags().GetInt("ocr-timeout")
		pCfg.OCRTimeout = time.Duration(n) * time.Second
	}
	if cmd.Flags().Changed("contrast") {
		f, _ := cmd.Flags().GetFloat64("contrast")
		pCfg.Preprocess.ContrastFactor = f
	}
	if cmd.Flags().Changed("upscale") {
		f, _ := cmd.Flags().GetFloat64("upscale")
		pCfg.Preprocess.UpscaleFactor = f
	}
	if cmd.Flags().Changed("no-pdf") {
		b, _ := cmd.Flags().GetBool("no-pdf")
		pCfg.AcceptPDF = !b
	}
}

// builderFromConfig seeds a pipeline builder from a resolved pipeline config.
func builderFromConfig(pCfg pipeline.Config) *pipeline.Builder {
	return pipeline.NewBuilder().
		WithIdentifierLength(pCfg.Extract.CanonicalLength).
		WithDigitWindow(pCfg.Extract.MinDigits, pCfg.Extract.MaxDigits).
		WithVendorLabels(pCfg.Extract.Labels).
		WithSuffixLength(pCfg.Match.SuffixLength).
		WithFuzzyMatching(pCfg.Match.FuzzyEnabled).
		WithAutoOrient(pCfg.Preprocess.AutoOrient).
		WithLandscapeRotate(pCfg.Preprocess.LandscapeRotate).
		WithGrayscale(pCfg.Preprocess.Grayscale).
		WithContrastFactor(pCfg.Preprocess.ContrastFactor).
		WithUpscaleFactor(pCfg.Preprocess.UpscaleFactor).
		WithOCRLanguages(pCfg.OCR.Languages).
		WithDigitsOnly(pCfg.OCR.DigitsOnly).
		WithSparseText(pCfg.OCR.SparseText).
		WithOCRTimeout(pCfg.OCRTimeout).
		WithPDFInput(pCfg.AcceptPDF)
}

// buildImagePipeline constructs the full pipeline including the Tesseract
// engine, with CLI flag overrides applied.
func buildImagePipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
	pCfg := buildPipelineConfig(cfg)
	applyPolicyFlags(cmd, &pCfg)
	return builderFromConfig(pCfg).Build()
}

// buildTextPipeline constructs a pipeline for direct-text inputs. No OCR
// engine is needed, so a stub engine is wired in and Tesseract is never
// initialized.
func buildTextPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
	pCfg := buildPipelineConfig(cfg)
	applyPolicyFlags(cmd, &pCfg)
	return builderFromConfig(pCfg).WithOCREngine(ocr.NewStatic()).Build()
}
