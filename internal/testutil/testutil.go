// Package testutil generates synthetic scanned-document images for tests.
// Real invoice scans cannot ship with the repository; rendered text images
// exercise the same decode, preprocess, and extraction paths.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// PortraitSize resembles a phone photo of a document.
	PortraitSize = ImageSize{480, 640}
	// LandscapeSize is the same photo taken sideways.
	LandscapeSize = ImageSize{640, 480}
)

// DocumentConfig holds configuration for generating document images.
type DocumentConfig struct {
	Lines      []string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	Rotation   float64 // rotation in degrees
}

// DefaultDocumentConfig returns a portrait document with sample invoice lines.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Lines:      []string{"ACME Corp", "Invoice No: 4210001234567", "Total: 100.00"},
		Size:       PortraitSize,
		Background: color.White,
		Foreground: color.Black,
	}
}

// GenerateDocument renders the configured text lines onto a synthetic page.
func GenerateDocument(t *testing.T, config DocumentConfig) image.Image {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: face,
	}

	lineHeight := face.Metrics().Height.Ceil() * 2
	startY := lineHeight * 2
	for i, line := range config.Lines {
		textWidth := font.MeasureString(face, line).Ceil()
		x := (config.Size.Width - textWidth) / 2
		if x < 4 {
			x = 4
		}
		drawer.Dot = fixed.P(x, startY+i*lineHeight)
		drawer.DrawString(line)
	}

	if config.Rotation != 0 {
		return imaging.Rotate(img, config.Rotation, color.White)
	}
	return img
}

// DocumentPNG renders a document and returns it PNG-encoded.
func DocumentPNG(t *testing.T, lines ...string) []byte {
	t.Helper()

	config := DefaultDocumentConfig()
	if len(lines) > 0 {
		config.Lines = lines
	}
	return EncodePNG(t, GenerateDocument(t, config))
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// EncodeJPEG encodes an image as JPEG bytes.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// InvoiceText builds a plausible OCR text block around an identifier line.
func InvoiceText(identifierLine string, extra ...string) string {
	lines := append([]string{"ACME Corp", "123 Example Road", identifierLine}, extra...)
	return strings.Join(lines, "\n") + "\n"
}
