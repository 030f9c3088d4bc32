// Package preprocess normalizes captured or uploaded document images into an
// OCR-friendly form: orientation correction, grayscale, contrast boost, and
// upscaling. All transforms are pure; decoding is the only failure mode.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// ErrDecode wraps image decoding failures.
var ErrDecode = errors.New("image decode failed")

// Config controls the normalization pipeline. Later stages strictly improve
// OCR accuracy for misoriented or low-contrast captures and do not regress
// behavior for already-clean scans.
type Config struct {
	// AutoOrient applies the embedded EXIF orientation tag during decode.
	// Missing or unreadable metadata is not an error.
	AutoOrient bool
	// LandscapeRotate rotates -90° when width still exceeds height after
	// metadata correction; landscape-captured portrait documents are a common
	// mis-orientation on mobile capture.
	LandscapeRotate bool
	// Grayscale converts to single-channel luminance.
	Grayscale bool
	// ContrastFactor is a multiplicative contrast boost (1.0 = unchanged).
	ContrastFactor float64
	// UpscaleFactor scales both dimensions to increase effective character
	// resolution for OCR (1.0 = unchanged).
	UpscaleFactor float64
}

// DefaultConfig returns the reference preprocessing policy.
func DefaultConfig() Config {
	return Config{
		AutoOrient:      true,
		LandscapeRotate: true,
		Grayscale:       true,
		ContrastFactor:  2.0,
		UpscaleFactor:   1.5,
	}
}

// Decode decodes raw image bytes (JPEG, PNG, BMP), honoring the EXIF
// orientation tag when cfg.AutoOrient is set.
func Decode(data []byte, cfg Config) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(cfg.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Document applies the configured normalization pipeline to a decoded image.
func Document(img image.Image, cfg Config) image.Image {
	out := img

	if cfg.LandscapeRotate {
		b := out.Bounds()
		if b.Dx() > b.Dy() {
			out = imaging.Rotate270(out)
		}
	}

	if cfg.Grayscale {
		out = imaging.Grayscale(out)
	}

	if cfg.ContrastFactor > 0 && cfg.ContrastFactor != 1.0 {
		out = imaging.AdjustContrast(out, contrastPercentage(cfg.ContrastFactor))
	}

	if cfg.UpscaleFactor > 0 && cfg.UpscaleFactor != 1.0 {
		b := out.Bounds()
		w := int(math.Round(float64(b.Dx()) * cfg.UpscaleFactor))
		h := int(math.Round(float64(b.Dy()) * cfg.UpscaleFactor))
		if w > 0 && h > 0 {
			out = imaging.Resize(out, w, h, imaging.Lanczos)
		}
	}

	return out
}

// DecodeAndPrepare decodes raw bytes and runs the full normalization pipeline.
func DecodeAndPrepare(data []byte, cfg Config) (image.Image, error) {
	img, err := Decode(data, cfg)
	if err != nil {
		return nil, err
	}
	return Document(img, cfg), nil
}

// contrastPercentage maps a multiplicative contrast factor onto the
// percentage scale used by imaging.AdjustContrast, clamped to its domain.
func contrastPercentage(factor float64) float64 {
	p := (factor - 1.0) * 100.0
	if p > 100 {
		p = 100
	}
	if p < -100 {
		p = -100
	}
	return p
}
