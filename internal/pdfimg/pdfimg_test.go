package pdfimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"pdf header", []byte("%PDF-1.7\n..."), true},
		{"png header", []byte("\x89PNG\r\n\x1a\n"), false},
		{"empty", nil, false},
		{"partial header", []byte("%PD"), false},
		{"header mid-stream", []byte("xx%PDF-"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPDF(tt.data))
		})
	}
}

func TestFirstImageRejectsBrokenPDF(t *testing.T) {
	_, err := FirstImage([]byte("%PDF-1.7 not actually a pdf"))
	assert.Error(t, err)
}

func TestParsePageFromFilename(t *testing.T) {
	tests := []struct {
		name string
		file string
		page int
		ok   bool
	}{
		{"standard extract name", "doc_1_Im0.png", 1, true},
		{"higher page", "doc_12_Im3.jpg", 12, true},
		{"no page token", "doc_ImA.png", 0, false},
		{"plain name", "readme.txt", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := parsePageFromFilename(tt.file)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.page, page)
			}
		})
	}
}

func TestFirstImagePathEmptyDir(t *testing.T) {
	_, err := firstImagePath(t.TempDir())
	assert.ErrorIs(t, err, ErrNoImages)
}
