package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by the Tesseract OCR engine via gosseract.
// A Tesseract instance serializes recognition calls; the underlying client is
// not safe for concurrent use.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

// NewTesseract creates a Tesseract engine with the given configuration.
// The engine must be closed when no longer needed.
func NewTesseract(cfg Config) (*Tesseract, error) {
	client := gosseract.NewClient()

	if cfg.Languages != "" {
		if err := client.SetLanguage(cfg.Languages); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set language %q: %w", cfg.Languages, err)
		}
	}
	if cfg.DigitsOnly {
		if err := client.SetWhitelist(digitWhitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if cfg.SparseText {
		if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}

	return &Tesseract{client: client}, nil
}

// Recognize runs Tesseract on the image. The context bounds the call: the
// recognition runs in its own goroutine and a cancelled or expired context
// returns immediately with ctx.Err().
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("%w: nil image", ErrRecognition)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: encode image: %v", ErrRecognition, err)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed {
			done <- result{err: fmt.Errorf("%w: engine closed", ErrRecognition)}
			return
		}
		if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
			done <- result{err: fmt.Errorf("%w: set image: %v", ErrRecognition, err)}
			return
		}
		text, err := t.client.Text()
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrRecognition, err)}
			return
		}
		done <- result{text: text}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

// Close releases the Tesseract client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.client.Close()
}
