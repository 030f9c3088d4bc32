package pipeline

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/preprocess"
	"github.com/scandocs/docmatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestPipeline(t *testing.T, texts ...string) *Pipeline {
	t.Helper()
	pl, err := NewBuilder().WithOCREngine(ocr.NewStatic(texts...)).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })
	return pl
}

func TestBuilderDefaults(t *testing.T) {
	cfg := NewBuilder().Config()

	assert.Equal(t, 13, cfg.Extract.CanonicalLength)
	assert.Equal(t, 13, cfg.Extract.MinDigits)
	assert.Equal(t, 14, cfg.Extract.MaxDigits)
	assert.Equal(t, 10, cfg.Match.SuffixLength)
	assert.True(t, cfg.Match.FuzzyEnabled)
	assert.InDelta(t, 2.0, cfg.Preprocess.ContrastFactor, 1e-9)
	assert.InDelta(t, 1.5, cfg.Preprocess.UpscaleFactor, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.True(t, cfg.AcceptPDF)
}

func TestBuilderOverrides(t *testing.T) {
	cfg := NewBuilder().
		WithIdentifierLength(11).
		WithDigitWindow(11, 11).
		WithSuffixLength(8).
		WithFuzzyMatching(false).
		WithVendorLabels([]string{"Rechnungsnummer", ""}).
		WithContrastFactor(1.2).
		WithUpscaleFactor(2.0).
		WithOCRTimeout(5 * time.Second).
		WithPDFInput(false).
		Config()

	assert.Equal(t, 11, cfg.Extract.CanonicalLength)
	assert.Equal(t, 11, cfg.Extract.MinDigits)
	assert.Equal(t, 11, cfg.Extract.MaxDigits)
	assert.Equal(t, 8, cfg.Match.SuffixLength)
	assert.False(t, cfg.Match.FuzzyEnabled)
	assert.Equal(t, []string{"Rechnungsnummer"}, cfg.Extract.Labels) // empties dropped
	assert.InDelta(t, 1.2, cfg.Preprocess.ContrastFactor, 1e-9)
	assert.InDelta(t, 2.0, cfg.Preprocess.UpscaleFactor, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.OCRTimeout)
	assert.False(t, cfg.AcceptPDF)
}

func TestBuilderValidateRejectsBadWindow(t *testing.T) {
	_, err := NewBuilder().
		WithDigitWindow(14, 13).
		WithOCREngine(ocr.NewStatic()).
		Build()
	assert.Error(t, err)
}

func TestExtractTextPath(t *testing.T) {
	pl := buildTestPipeline(t)

	doc := pl.ExtractText("Invoice No: 4210001234567")
	require.Len(t, doc.Candidates, 1)
	assert.Equal(t, "4210001234567", doc.Candidates[0].Value)
	assert.Equal(t, "Invoice No: 4210001234567", doc.RawText)
}

func TestCompareTextsMatch(t *testing.T) {
	pl := buildTestPipeline(t)

	res := pl.CompareTexts(
		"Invoice No: 4210001234567",
		"some noise\n4210001234567\nmore noise",
	)

	assert.True(t, res.Matched)
	assert.Equal(t, []string{"4210001234567"}, res.Values)
	assert.Equal(t, 0, res.Documents[0].Index)
	assert.Equal(t, 1, res.Documents[1].Index)
	assert.GreaterOrEqual(t, res.Processing.TotalNs, int64(0))
}

func TestCompareTextsNoMatchKeepsCandidates(t *testing.T) {
	pl := buildTestPipeline(t)

	res := pl.CompareTexts(
		"Invoice No: 4210001234567",
		"Invoice No: 5559998887776",
	)

	assert.False(t, res.Matched)
	require.Len(t, res.Documents[0].Candidates, 1)
	require.Len(t, res.Documents[1].Candidates, 1)
}

func TestCompareImagesWithStaticEngine(t *testing.T) {
	pl := buildTestPipeline(t,
		"Invoice No: 4210001234567",
		"Invoice No: 4210001234567",
	)

	img := testutil.DocumentPNG(t, "anything, the engine replays seeded text")
	res, err := pl.CompareImages(context.Background(), img, img)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, []string{"4210001234567"}, res.Values)
}

func TestCompareImagesDecodeErrorNamesDocument(t *testing.T) {
	pl := buildTestPipeline(t, "Invoice No: 4210001234567")
	good := testutil.DocumentPNG(t)

	_, err := pl.CompareImages(context.Background(), []byte("garbage"), good)
	require.Error(t, err)
	assert.ErrorIs(t, err, preprocess.ErrDecode)
	assert.Contains(t, err.Error(), "document 1")

	_, err = pl.CompareImages(context.Background(), good, []byte("garbage"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 2")
}

func TestCompareImagesRecognitionError(t *testing.T) {
	engine := ocr.NewStatic()
	engine.Err = ocr.ErrRecognition
	pl, err := NewBuilder().WithOCREngine(engine).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })

	img := testutil.DocumentPNG(t)
	_, err = pl.CompareImages(context.Background(), img, img)
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrRecognition)
}

func TestCompareTextsDeterministic(t *testing.T) {
	pl := buildTestPipeline(t)
	a := "Invoice No: 4210001234567"
	b := "ref 9990001234567"

	first := pl.CompareTexts(a, b)
	for range 5 {
		next := pl.CompareTexts(a, b)
		assert.Equal(t, first.Matched, next.Matched)
		assert.Equal(t, first.Values, next.Values)
		assert.Equal(t, first.Pairs, next.Pairs)
	}
}

func TestToPlainText(t *testing.T) {
	pl := buildTestPipeline(t)

	res := pl.CompareTexts("Invoice No: 4210001234567", "4210001234567")
	out, err := ToPlainText(res)
	require.NoError(t, err)
	assert.Contains(t, out, "MATCH FOUND")
	assert.Contains(t, out, "4210001234567")
	assert.Contains(t, out, "Document 1:")
	assert.Contains(t, out, "Document 2:")

	res = pl.CompareTexts("nothing here", "nothing there")
	out, err = ToPlainText(res)
	require.NoError(t, err)
	assert.Contains(t, out, "NO MATCH FOUND")
	assert.Contains(t, out, "(none)")
}

func TestToJSON(t *testing.T) {
	pl := buildTestPipeline(t)

	res := pl.CompareTexts("Invoice No: 4210001234567", "4210001234567")
	out, err := ToJSON(res)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"matched": true`))
	assert.True(t, strings.Contains(out, `"4210001234567"`))
}

func TestFormattersRejectNil(t *testing.T) {
	_, err := ToJSON(nil)
	assert.Error(t, err)
	_, err = ToPlainText(nil)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	pl, err := NewBuilder().WithOCREngine(ocr.NewStatic()).Build()
	require.NoError(t, err)

	require.NoError(t, pl.Close())
	require.NoError(t, pl.Close())
}

func TestRecognizeTimeout(t *testing.T) {
	slow := &slowEngine{delay: 200 * time.Millisecond}
	pl, err := NewBuilder().WithOCREngine(slow).WithOCRTimeout(10 * time.Millisecond).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })

	img := testutil.DocumentPNG(t)
	_, err = pl.ExtractImage(context.Background(), img)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// slowEngine blocks until its delay elapses or the context expires.
type slowEngine struct {
	delay time.Duration
}

func (s *slowEngine) Recognize(ctx context.Context, _ image.Image) (string, error) {
	select {
	case <-time.After(s.delay):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *slowEngine) Close() error { return nil }
