package session

import (
	"context"
	"testing"

	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/scandocs/docmatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textPipeline(t *testing.T, texts ...string) *pipeline.Pipeline {
	t.Helper()
	pl, err := pipeline.NewBuilder().WithOCREngine(ocr.NewStatic(texts...)).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })
	return pl
}

func TestNewStartsAtHome(t *testing.T) {
	s := New()
	assert.Equal(t, StateHome, s.State())
	assert.Equal(t, MaxDocuments, s.Needed())
	assert.Nil(t, s.Result())
}

func TestBeginTransitionsToAcquiring(t *testing.T) {
	s := New()

	require.NoError(t, s.Begin(ModeCamera))
	assert.Equal(t, StateAcquiring, s.State())
	assert.Equal(t, ModeCamera, s.Mode())

	// Begin is only legal from Home.
	assert.ErrorIs(t, s.Begin(ModeUpload), ErrInvalidTransition)
}

func TestAddImageOutsideAcquiring(t *testing.T) {
	s := New()

	_, _, err := s.AddImage([]byte("x"), SourceUpload)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddImageCountsAndTruncation(t *testing.T) {
	s := New()
	require.NoError(t, s.Begin(ModeUpload))

	added, needed, err := s.AddImage([]byte("one"), SourceUpload)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, needed)

	added, needed, err = s.AddImage([]byte("two"), SourceUpload)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 0, needed)
	assert.True(t, s.Ready())

	// A third input is silently ignored: first two by arrival order win.
	added, needed, err = s.AddImage([]byte("three"), SourceUpload)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, needed)

	images := s.Images()
	require.Len(t, images, 2)
	assert.Equal(t, []byte("one"), images[0].Data)
	assert.Equal(t, []byte("two"), images[1].Data)
	assert.Equal(t, 0, images[0].Index)
	assert.Equal(t, 1, images[1].Index)
}

func TestAddAfterProcessingIsIgnored(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)
	_, _, err = s.AddText("4210001234567")
	require.NoError(t, err)

	res, err := s.Process(context.Background(), pl)
	require.NoError(t, err)
	require.Equal(t, StateComparison, s.State())

	// Excess inputs after processing are truncated like any third input:
	// silently ignored, never an error.
	added, needed, err := s.AddText("5559998887776")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, needed)

	assert.Equal(t, StateComparison, s.State())
	assert.Same(t, res, s.Result())
	assert.Len(t, s.Images(), 2)
}

func TestProcessRequiresBothDocuments(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)

	_, err = s.Process(context.Background(), pl)
	assert.ErrorIs(t, err, ErrInsufficientImages)
	// Inputs survive; the session stays in the workflow.
	assert.Len(t, s.Images(), 1)
}

func TestProcessTextInputs(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)
	_, _, err = s.AddText("noise 4210001234567 noise")
	require.NoError(t, err)

	res, err := s.Process(context.Background(), pl)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, StateComparison, s.State())
	assert.Same(t, res, s.Result())

	docs := s.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, 0, docs[0].Index)
	assert.Equal(t, 1, docs[1].Index)
}

func TestProcessImageInputs(t *testing.T) {
	s := New()
	pl := textPipeline(t,
		"Invoice No: 4210001234567",
		"Invoice No: 9990001234567",
	)

	require.NoError(t, s.Begin(ModeUpload))
	img := testutil.DocumentPNG(t)
	_, _, err := s.AddImage(img, SourceUpload)
	require.NoError(t, err)
	_, _, err = s.AddImage(img, SourceCamera)
	require.NoError(t, err)

	res, err := s.Process(context.Background(), pl)
	require.NoError(t, err)
	// Different leading digits, same 10-digit suffix: fuzzy match.
	assert.True(t, res.Matched)
	assert.Equal(t, StateComparison, s.State())
}

func TestProcessFailureResetsToHome(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeUpload))
	_, _, err := s.AddImage([]byte("not an image"), SourceUpload)
	require.NoError(t, err)
	_, _, err = s.AddImage([]byte("also not an image"), SourceUpload)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), pl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 1")

	// Full reset: no partial results, back to Home.
	assert.Equal(t, StateHome, s.State())
	assert.Empty(t, s.Images())
	assert.Empty(t, s.Documents())
	assert.Nil(t, s.Result())
}

func TestProcessReentrant(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)
	_, _, err = s.AddText("4210001234567")
	require.NoError(t, err)

	first, err := s.Process(context.Background(), pl)
	require.NoError(t, err)

	// Re-processing from Comparison recomputes deterministically and does
	// not duplicate inputs or documents.
	second, err := s.Process(context.Background(), pl)
	require.NoError(t, err)
	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.Values, second.Values)
	assert.Len(t, s.Images(), 2)
	assert.Len(t, s.Documents(), 2)
}

func TestProcessFromHomeIsInvalid(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	_, err := s.Process(context.Background(), pl)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	pl := textPipeline(t)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)
	_, _, err = s.AddText("4210001234567")
	require.NoError(t, err)
	_, err = s.Process(context.Background(), pl)
	require.NoError(t, err)

	s.Reset()

	assert.Equal(t, StateHome, s.State())
	assert.Empty(t, s.Mode())
	assert.Empty(t, s.Images())
	assert.Empty(t, s.Documents())
	assert.Nil(t, s.Result())
	assert.Equal(t, MaxDocuments, s.Needed())

	// A fresh cycle works after reset.
	require.NoError(t, s.Begin(ModeText))
	assert.Equal(t, StateAcquiring, s.State())
}

func TestSessionsAreIsolated(t *testing.T) {
	a, b := New(), New()

	require.NoError(t, a.Begin(ModeText))
	_, _, err := a.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)

	assert.Equal(t, StateHome, b.State())
	assert.Empty(t, b.Images())

	a.Reset()
	assert.Equal(t, StateHome, a.State())
}

func TestSnapshot(t *testing.T) {
	s := New()

	snap := s.Snapshot()
	assert.Equal(t, StateHome, snap.State)
	assert.Equal(t, 0, snap.Acquired)
	assert.Equal(t, MaxDocuments, snap.Needed)
	assert.Nil(t, snap.Result)

	require.NoError(t, s.Begin(ModeText))
	_, _, err := s.AddText("Invoice No: 4210001234567")
	require.NoError(t, err)

	snap = s.Snapshot()
	assert.Equal(t, StateAcquiring, snap.State)
	assert.Equal(t, ModeText, snap.Mode)
	assert.Equal(t, 1, snap.Acquired)
	assert.Equal(t, 1, snap.Needed)
}
