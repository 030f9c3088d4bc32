// Package pipeline wires together preprocessing, OCR, extraction, and
// matching into the document comparison pipeline.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/scandocs/docmatch/internal/extract"
	"github.com/scandocs/docmatch/internal/match"
	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/preprocess"
)

// Config holds configuration for the comparison pipeline and its components.
type Config struct {
	Extract    extract.Config
	Match      match.Config
	Preprocess preprocess.Config
	OCR        ocr.Config

	// OCRTimeout bounds a single recognition call. Zero disables the bound.
	OCRTimeout time.Duration

	// AcceptPDF enables PDF inputs via embedded page image extraction.
	AcceptPDF bool
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Extract:    extract.DefaultConfig(),
		Match:      match.DefaultConfig(),
		Preprocess: preprocess.DefaultConfig(),
		OCR:        ocr.DefaultConfig(),
		OCRTimeout: 30 * time.Second,
		AcceptPDF:  true,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	engine ocr.Engine
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithIdentifierLength sets the canonical identifier digit count.
func (b *Builder) WithIdentifierLength(n int) *Builder {
	if n > 0 {
		b.cfg.Extract.CanonicalLength = n
	}
	return b
}

// WithDigitWindow sets the accepted digit-run length window.
func (b *Builder) WithDigitWindow(minDigits, maxDigits int) *Builder {
	if minDigits > 0 {
		b.cfg.Extract.MinDigits = minDigits
	}
	if maxDigits > 0 {
		b.cfg.Extract.MaxDigits = maxDigits
	}
	return b
}

// WithSuffixLength sets the trailing digit count compared by the fuzzy policy.
func (b *Builder) WithSuffixLength(n int) *Builder {
	if n > 0 {
		b.cfg.Match.SuffixLength = n
	}
	return b
}

// WithFuzzyMatching enables or disables the suffix fallback policy.
func (b *Builder) WithFuzzyMatching(enabled bool) *Builder {
	b.cfg.Match.FuzzyEnabled = enabled
	return b
}

// WithVendorLabels adds vendor-specific label phrases tried ahead of the
// built-in ones.
func (b *Builder) WithVendorLabels(labels []string) *Builder {
	cleaned := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != "" {
			cleaned = append(cleaned, l)
		}
	}
	b.cfg.Extract.Labels = cleaned
	return b
}

// WithAutoOrient toggles EXIF orientation correction on decode.
func (b *Builder) WithAutoOrient(enabled bool) *Builder {
	b.cfg.Preprocess.AutoOrient = enabled
	return b
}

// WithLandscapeRotate toggles the heuristic fallback rotation.
func (b *Builder) WithLandscapeRotate(enabled bool) *Builder {
	b.cfg.Preprocess.LandscapeRotate = enabled
	return b
}

// WithGrayscale toggles grayscale conversion.
func (b *Builder) WithGrayscale(enabled bool) *Builder {
	b.cfg.Preprocess.Grayscale = enabled
	return b
}

// WithContrastFactor sets the multiplicative contrast boost.
func (b *Builder) WithContrastFactor(f float64) *Builder {
	if f > 0 {
		b.cfg.Preprocess.ContrastFactor = f
	}
	return b
}

// WithUpscaleFactor sets the OCR upscale factor.
func (b *Builder) WithUpscaleFactor(f float64) *Builder {
	if f > 0 {
		b.cfg.Preprocess.UpscaleFactor = f
	}
	return b
}

// WithOCRLanguages sets the Tesseract language list.
func (b *Builder) WithOCRLanguages(langs string) *Builder {
	if langs != "" {
		b.cfg.OCR.Languages = langs
	}
	return b
}

// WithDigitsOnly toggles the digit character whitelist.
func (b *Builder) WithDigitsOnly(enabled bool) *Builder {
	b.cfg.OCR.DigitsOnly = enabled
	return b
}

// WithSparseText toggles the sparse-text segmentation mode.
func (b *Builder) WithSparseText(enabled bool) *Builder {
	b.cfg.OCR.SparseText = enabled
	return b
}

// WithOCRTimeout bounds a single recognition call.
func (b *Builder) WithOCRTimeout(d time.Duration) *Builder {
	if d >= 0 {
		b.cfg.OCRTimeout = d
	}
	return b
}

// WithOCREngine supplies a pre-built engine instead of constructing Tesseract
// at build time. The pipeline takes ownership and closes it.
func (b *Builder) WithOCREngine(engine ocr.Engine) *Builder {
	b.engine = engine
	return b
}

// WithPDFInput enables or disables PDF inputs.
func (b *Builder) WithPDFInput(enabled bool) *Builder {
	b.cfg.AcceptPDF = enabled
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if err := b.cfg.Extract.Validate(); err != nil {
		return err
	}
	if b.cfg.Match.SuffixLength <= 0 {
		return errors.New("suffix length must be > 0")
	}
	if b.cfg.Preprocess.ContrastFactor <= 0 {
		return errors.New("contrast factor must be > 0")
	}
	if b.cfg.Preprocess.UpscaleFactor <= 0 {
		return errors.New("upscale factor must be > 0")
	}
	return nil
}

// Pipeline wires together the preprocessor, OCR engine, extractor, and matcher.
type Pipeline struct {
	cfg       Config
	extractor *extract.Extractor
	engine    ocr.Engine
}

// Build initializes the pipeline components. When no engine was supplied via
// WithOCREngine, a Tesseract engine is created from the OCR config.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	extractor, err := extract.New(b.cfg.Extract)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	engine := b.engine
	if engine == nil {
		engine, err = ocr.NewTesseract(b.cfg.OCR)
		if err != nil {
			return nil, fmt.Errorf("init ocr engine: %w", err)
		}
	}

	return &Pipeline{cfg: b.cfg, extractor: extractor, engine: engine}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the OCR engine.
func (p *Pipeline) Close() error {
	if p.engine != nil {
		err := p.engine.Close()
		p.engine = nil
		return err
	}
	return nil
}
