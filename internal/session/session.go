// Package session owns the state for one acquire-process-compare cycle and
// the workflow state machine that drives it. A Session is confined to one
// logical user; concurrent users get isolated Sessions.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/scandocs/docmatch/internal/pipeline"
)

// State is a workflow state machine state.
type State string

const (
	// StateHome is the initial state; nothing acquired.
	StateHome State = "home"
	// StateAcquiring collects up to MaxDocuments inputs.
	StateAcquiring State = "acquiring"
	// StateProcessing runs OCR extraction and matching.
	StateProcessing State = "processing"
	// StateComparison holds a computed result until an explicit reset.
	StateComparison State = "comparison"
)

// Mode is the acquisition sub-mode selected when leaving Home.
type Mode string

const (
	ModeCamera Mode = "camera"
	ModeUpload Mode = "upload"
	ModeText   Mode = "text"
)

// Source records where a captured input came from.
type Source string

const (
	SourceCamera Source = "camera"
	SourceUpload Source = "upload"
	SourceText   Source = "text"
)

// MaxDocuments is the number of documents compared per cycle.
const MaxDocuments = 2

// ErrInvalidTransition is returned for operations not legal in the current state.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// ErrInsufficientImages is returned when processing is requested before both
// documents are present. It is a signal, not a failure: the caller reports
// how many more inputs are needed and stays in the acquiring state.
var ErrInsufficientImages = errors.New("insufficient images for comparison")

// CapturedImage is one acquired document input. Index 0 is "Document 1".
// For direct-text inputs Data is empty and Text carries the OCR text.
type CapturedImage struct {
	Data   []byte
	Text   string
	Source Source
	Index  int
}

// direct reports whether the input bypasses preprocessing and OCR.
func (c CapturedImage) direct() bool { return c.Source == SourceText }

// Processor is the pipeline surface the workflow needs.
type Processor interface {
	ExtractImage(ctx context.Context, data []byte) (*pipeline.DocumentResult, error)
	ExtractText(text string) *pipeline.DocumentResult
	CompareTexts(a, b string) *pipeline.CompareResult
}

// Session is the mutable state scoping one comparison cycle. It is not safe
// for concurrent use; callers confine it to one request context.
type Session struct {
	state  State
	mode   Mode
	inputs []CapturedImage
	docs   []pipeline.DocumentResult
	result *pipeline.CompareResult
}

// New creates a Session in the Home state.
func New() *Session {
	return &Session{state: StateHome}
}

// State returns the current workflow state.
func (s *Session) State() State { return s.state }

// Mode returns the acquisition mode selected by Begin.
func (s *Session) Mode() Mode { return s.mode }

// Begin transitions Home -> Acquiring for the given mode. The session is
// reset first so no stale images or results leak into the new cycle.
func (s *Session) Begin(mode Mode) error {
	if s.state != StateHome {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.state)
	}
	s.Reset()
	s.state = StateAcquiring
	s.mode = mode
	return nil
}

// AddImage appends a captured or uploaded document image while fewer than
// MaxDocuments are held. Excess inputs are ignored, never an error: the first
// MaxDocuments by arrival order win. It returns whether the input was kept
// and how many more are needed.
func (s *Session) AddImage(data []byte, source Source) (bool, int, error) {
	return s.add(CapturedImage{Data: data, Source: source})
}

// AddText appends directly supplied OCR text for one document, bypassing the
// OCR adapter. Truncation semantics match AddImage.
func (s *Session) AddText(text string) (bool, int, error) {
	return s.add(CapturedImage{Text: text, Source: SourceText})
}

func (s *Session) add(in CapturedImage) (bool, int, error) {
	// A full session silently ignores further inputs, even after the second
	// document has already triggered processing.
	if len(s.inputs) >= MaxDocuments {
		return false, 0, nil
	}
	if s.state != StateAcquiring {
		return false, s.Needed(), fmt.Errorf("%w: add input in %s", ErrInvalidTransition, s.state)
	}
	in.Index = len(s.inputs)
	s.inputs = append(s.inputs, in)
	return true, s.Needed(), nil
}

// Needed returns how many more documents must be acquired before processing.
func (s *Session) Needed() int {
	n := MaxDocuments - len(s.inputs)
	if n < 0 {
		return 0
	}
	return n
}

// Ready reports whether both documents are present.
func (s *Session) Ready() bool { return len(s.inputs) >= MaxDocuments }

// Process runs the comparison pipeline over the two acquired documents.
//
// On success the session transitions to Comparison, regardless of the match
// outcome. On any pipeline failure the session is fully reset to Home and the
// error is returned; partial results are discarded rather than retried.
// Processing is re-entrant: invoked again for the same pair (from Comparison,
// e.g. a retry) it recomputes deterministically and never duplicates inputs.
func (s *Session) Process(ctx context.Context, p Processor) (*pipeline.CompareResult, error) {
	switch s.state {
	case StateAcquiring, StateProcessing, StateComparison:
	default:
		return nil, fmt.Errorf("%w: process from %s", ErrInvalidTransition, s.state)
	}
	if !s.Ready() {
		return nil, fmt.Errorf("%w: need %d more", ErrInsufficientImages, s.Needed())
	}

	s.state = StateProcessing
	s.docs = nil
	s.result = nil

	docs := make([]pipeline.DocumentResult, 0, MaxDocuments)
	for _, in := range s.inputs[:MaxDocuments] {
		var (
			doc *pipeline.DocumentResult
			err error
		)
		if in.direct() {
			doc = p.ExtractText(in.Text)
		} else {
			doc, err = p.ExtractImage(ctx, in.Data)
		}
		if err != nil {
			s.Reset()
			return nil, fmt.Errorf("document %d: %w", in.Index+1, err)
		}
		doc.Index = in.Index
		docs = append(docs, *doc)
	}

	res := p.CompareTexts(docs[0].RawText, docs[1].RawText)

	s.docs = docs
	s.result = res
	s.state = StateComparison
	return res, nil
}

// Reset clears all acquired inputs, extracted documents, and the match
// result, returning to Home. After a reset nothing from the previous cycle
// is visible.
func (s *Session) Reset() {
	s.state = StateHome
	s.mode = ""
	s.inputs = nil
	s.docs = nil
	s.result = nil
}

// Images returns a copy of the captured inputs.
func (s *Session) Images() []CapturedImage {
	out := make([]CapturedImage, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// Documents returns the extracted documents; populated only after processing.
func (s *Session) Documents() []pipeline.DocumentResult {
	out := make([]pipeline.DocumentResult, len(s.docs))
	copy(out, s.docs)
	return out
}

// Result returns the last match result, or nil outside the Comparison state.
func (s *Session) Result() *pipeline.CompareResult { return s.result }

// Snapshot is a point-in-time view of the session for status reporting.
type Snapshot struct {
	State     State                     `json:"state"`
	Mode      Mode                      `json:"mode,omitempty"`
	Acquired  int                       `json:"acquired"`
	Needed    int                       `json:"needed"`
	Documents []pipeline.DocumentResult `json:"documents,omitempty"`
	Result    *pipeline.CompareResult   `json:"result,omitempty"`
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Mode:      s.mode,
		Acquired:  len(s.inputs),
		Needed:    s.Needed(),
		Documents: s.Documents(),
		Result:    s.result,
	}
}
