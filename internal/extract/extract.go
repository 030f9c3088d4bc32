// Package extract turns noisy OCR text into an ordered list of invoice-number
// candidates using a tiered pattern strategy: high-confidence labeled patterns
// first, with a fallback to bare digit runs only when no label matched.
package extract

import (
	"fmt"
	"regexp"
	"sort"
)

// Source identifies which extraction tier produced a candidate.
type Source string

const (
	// SourceLabeled marks candidates found after a known label phrase.
	SourceLabeled Source = "labeled"
	// SourceFallback marks candidates found as standalone digit runs.
	SourceFallback Source = "fallback"
)

// DefaultLabels are the label phrases recognized ahead of an identifier.
// Vendor-specific phrases can be prepended via Config.Labels.
var DefaultLabels = []string{
	"Invoice No",
	"Invoice Number",
	"Invoice Sr. No",
	"Document No",
}

// Candidate is a normalized identifier candidate with its provenance.
type Candidate struct {
	// Value is the candidate digit string, truncated to the canonical length.
	Value string `json:"value"`
	// Raw is the digit run as matched, before truncation.
	Raw string `json:"raw,omitempty"`
	// Source records the tier that produced the candidate.
	Source Source `json:"source"`
	// Label is the matched label phrase for labeled candidates.
	Label string `json:"label,omitempty"`
	// Offset is the byte offset of the digit run in the normalized text.
	Offset int `json:"offset"`
}

// Config bounds the digit runs accepted as candidates.
type Config struct {
	// MinDigits and MaxDigits bound the accepted digit-run length.
	MinDigits int
	MaxDigits int
	// CanonicalLength is the identifier length; longer runs are truncated to
	// their trailing CanonicalLength digits. Leading digits are the part most
	// prone to OCR corruption, so the tail is treated as significant.
	CanonicalLength int
	// Labels holds additional vendor label phrases, tried before DefaultLabels.
	Labels []string
}

// DefaultConfig returns extraction defaults for 13-digit identifiers with a
// one-digit tolerance for duplicated leading digits.
func DefaultConfig() Config {
	return Config{
		MinDigits:       13,
		MaxDigits:       14,
		CanonicalLength: 13,
	}
}

// Validate checks the configured digit window.
func (c Config) Validate() error {
	if c.MinDigits <= 0 || c.MaxDigits < c.MinDigits {
		return fmt.Errorf("invalid digit window %d-%d", c.MinDigits, c.MaxDigits)
	}
	if c.CanonicalLength <= 0 || c.CanonicalLength > c.MaxDigits {
		return fmt.Errorf("invalid canonical length %d for window %d-%d",
			c.CanonicalLength, c.MinDigits, c.MaxDigits)
	}
	return nil
}

// Extractor extracts identifier candidates from OCR text.
type Extractor struct {
	cfg      Config
	labeled  []labelPattern
	fallback *regexp.Regexp
}

type labelPattern struct {
	label string
	re    *regexp.Regexp
}

// New creates an Extractor for the given config.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(cfg.Labels)+len(DefaultLabels))
	labels = append(labels, cfg.Labels...)
	labels = append(labels, DefaultLabels...)

	patterns := make([]labelPattern, 0, len(labels))
	for _, label := range labels {
		// Label phrase, a separator (colon, period, or comma), then a maximal
		// digit run. The run is validated against the window afterwards so a
		// labeled run outside the window is rejected rather than laxly split.
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(label) + `\s*[:.,]\s*([0-9]+)`)
		if err != nil {
			return nil, fmt.Errorf("compile label pattern %q: %w", label, err)
		}
		patterns = append(patterns, labelPattern{label: label, re: re})
	}

	// Standalone digit runs bounded by non-digits.
	fallback := regexp.MustCompile(`[0-9]+`)

	return &Extractor{cfg: cfg, labeled: patterns, fallback: fallback}, nil
}

// Extract returns the ordered candidate list for raw OCR text. Duplicates are
// preserved; deduplication is the matcher's concern. An empty result is a
// valid outcome, not an error.
func (e *Extractor) Extract(text string) []Candidate {
	normalized := Normalize(text)

	if cands := e.extractLabeled(normalized); len(cands) > 0 {
		return cands
	}
	return e.extractFallback(normalized)
}

// extractLabeled implements tier 1: all label patterns are tried and their
// matches unioned, preserving first-match order per pattern.
func (e *Extractor) extractLabeled(text string) []Candidate {
	var out []Candidate
	for _, p := range e.labeled {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			run := text[m[2]:m[3]]
			if !e.inWindow(run) {
				continue
			}
			out = append(out, Candidate{
				Value:  e.canonical(run),
				Raw:    run,
				Source: SourceLabeled,
				Label:  p.label,
				Offset: m[2],
			})
		}
	}
	sortStable(out)
	return out
}

// extractFallback implements tier 2: maximal digit runs within the window.
func (e *Extractor) extractFallback(text string) []Candidate {
	var out []Candidate
	for _, m := range e.fallback.FindAllStringIndex(text, -1) {
		run := text[m[0]:m[1]]
		if !e.inWindow(run) {
			continue
		}
		out = append(out, Candidate{
			Value:  e.canonical(run),
			Raw:    run,
			Source: SourceFallback,
			Offset: m[0],
		})
	}
	return out
}

func (e *Extractor) inWindow(run string) bool {
	return len(run) >= e.cfg.MinDigits && len(run) <= e.cfg.MaxDigits
}

// canonical truncates an over-long run to its trailing CanonicalLength digits.
func (e *Extractor) canonical(run string) string {
	if len(run) > e.cfg.CanonicalLength {
		return run[len(run)-e.cfg.CanonicalLength:]
	}
	return run
}

// sortStable restores text order across the per-pattern unions while keeping
// the per-pattern relative order for candidates at the same offset.
func sortStable(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Offset < cands[j].Offset })
}

// Values returns just the candidate values, in order.
func Values(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Value
	}
	return out
}
