package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/scandocs/docmatch/internal/extract"
	"github.com/scandocs/docmatch/internal/match"
	"github.com/scandocs/docmatch/internal/pdfimg"
	"github.com/scandocs/docmatch/internal/preprocess"
)

// DocumentResult holds the extraction outcome for a single document.
type DocumentResult struct {
	// Index is the acquisition index (0 = "Document 1").
	Index int `json:"index"`
	// RawText is the OCR (or directly supplied) text, unmodified.
	RawText string `json:"raw_text"`
	// Candidates is the ordered candidate list; empty is a valid outcome.
	Candidates []extract.Candidate `json:"candidates"`
}

// CompareResult is the verdict for one comparison cycle. The per-document raw
// texts and candidate lists are always present so a human can verify an
// automatic "no match".
type CompareResult struct {
	Matched bool `json:"matched"`
	// Values holds the de-duplicated matched identifiers in first-found order.
	Values []string `json:"values,omitempty"`
	// Pairs records which candidates produced each match.
	Pairs []match.Pair `json:"pairs,omitempty"`
	// Documents are the per-document diagnostics, index-aligned with inputs.
	Documents [2]DocumentResult `json:"documents"`

	Processing struct {
		TotalNs int64 `json:"total_ns"`
	} `json:"processing"`
}

// decode turns raw input bytes into an image, accepting PDF wrappers when
// configured.
func (p *Pipeline) decode(data []byte) (image.Image, error) {
	if p.cfg.AcceptPDF && pdfimg.IsPDF(data) {
		img, err := pdfimg.FirstImage(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", preprocess.ErrDecode, err)
		}
		return img, nil
	}
	return preprocess.Decode(data, p.cfg.Preprocess)
}

// recognize runs the OCR engine on a prepared image under the configured
// timeout.
func (p *Pipeline) recognize(ctx context.Context, img image.Image) (string, error) {
	if p.cfg.OCRTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.OCRTimeout)
		defer cancel()
	}
	return p.engine.Recognize(ctx, img)
}

// ExtractImage decodes, preprocesses, and OCRs one document image, returning
// its raw text and candidate list.
func (p *Pipeline) ExtractImage(ctx context.Context, data []byte) (*DocumentResult, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}

	prepared := preprocess.Document(img, p.cfg.Preprocess)

	text, err := p.recognize(ctx, prepared)
	if err != nil {
		return nil, err
	}

	return p.ExtractText(text), nil
}

// ExtractText runs extraction on directly supplied text, bypassing the OCR
// adapter entirely. This is an equally valid entry path into matching.
func (p *Pipeline) ExtractText(text string) *DocumentResult {
	return &DocumentResult{
		RawText:    text,
		Candidates: p.extractor.Extract(text),
	}
}

// CompareImages runs the full pipeline over two document images. The result
// is deterministic for identical inputs.
func (p *Pipeline) CompareImages(ctx context.Context, a, b []byte) (*CompareResult, error) {
	start := time.Now()

	docA, err := p.ExtractImage(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("document 1: %w", err)
	}
	docB, err := p.ExtractImage(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("document 2: %w", err)
	}

	res := p.compare(docA, docB)
	res.Processing.TotalNs = time.Since(start).Nanoseconds()
	return res, nil
}

// CompareTexts runs matching over two directly supplied OCR texts.
func (p *Pipeline) CompareTexts(a, b string) *CompareResult {
	start := time.Now()
	res := p.compare(p.ExtractText(a), p.ExtractText(b))
	res.Processing.TotalNs = time.Since(start).Nanoseconds()
	return res
}

func (p *Pipeline) compare(docA, docB *DocumentResult) *CompareResult {
	docA.Index = 0
	docB.Index = 1

	m := match.Match(docA.Candidates, docB.Candidates, p.cfg.Match)

	res := &CompareResult{
		Matched:   m.Matched,
		Values:    m.Values,
		Pairs:     m.Pairs,
		Documents: [2]DocumentResult{*docA, *docB},
	}
	return res
}
