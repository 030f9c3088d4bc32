// Package ocr defines the boundary to the OCR engine. The engine is treated
// as an unreliable black box: returned text may contain spurious whitespace,
// punctuation substituted for digits, dropped or duplicated leading digits,
// and locale-dependent grouping separators. The extraction tier exists to
// absorb that unreliability.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrRecognition wraps engine failures so callers can classify them.
var ErrRecognition = errors.New("ocr recognition failed")

// Engine recognizes text in a preprocessed document image.
type Engine interface {
	// Recognize returns the raw recognized text. The context bounds the
	// operation; implementations must return promptly once it is done.
	Recognize(ctx context.Context, img image.Image) (string, error)

	// Close releases engine resources.
	Close() error
}

// Config holds engine settings shared by implementations.
type Config struct {
	// Languages is a "+"-separated Tesseract language list (e.g. "eng").
	Languages string
	// DigitsOnly restricts recognition to a digit character whitelist, which
	// reduces misreads of digits as letters when only numeric fields matter.
	DigitsOnly bool
	// SparseText favors a sparse-text page segmentation mode over full
	// layout analysis.
	SparseText bool
}

// DefaultConfig returns engine defaults for numeric-field recognition.
func DefaultConfig() Config {
	return Config{
		Languages:  "eng",
		DigitsOnly: true,
		SparseText: true,
	}
}

// digitWhitelist is the character set used when DigitsOnly is set. The few
// non-digit characters keep label separators recognizable.
const digitWhitelist = "0123456789:.,/- "
