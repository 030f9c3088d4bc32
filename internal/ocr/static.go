package ocr

import (
	"context"
	"image"
	"sync"
)

// Static is an Engine that returns pre-seeded texts in order, then keeps
// returning the last one. It backs the direct-text entry path and lets the
// full pipeline run in tests without a Tesseract installation.
type Static struct {
	mu    sync.Mutex
	texts []string
	next  int

	// Err, when set, is returned by every Recognize call.
	Err error
}

// NewStatic creates a Static engine that replays the given texts.
func NewStatic(texts ...string) *Static {
	return &Static{texts: texts}
}

// Recognize returns the next seeded text.
func (s *Static) Recognize(ctx context.Context, _ image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.texts) == 0 {
		return "", nil
	}
	text := s.texts[s.next]
	if s.next < len(s.texts)-1 {
		s.next++
	}
	return text, nil
}

// Close resets the replay position.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
	return nil
}
