// Package match decides whether two candidate lists reference the same
// identifier, using an exact-match policy with a fuzzy suffix fallback that
// tolerates OCR misreads in leading digits.
package match

import (
	"github.com/scandocs/docmatch/internal/extract"
)

// Policy identifies which matching rule produced a pair.
type Policy string

const (
	// PolicyExact means both documents contained the identical value.
	PolicyExact Policy = "exact"
	// PolicySuffix means the trailing digits agreed even though the full
	// values differed.
	PolicySuffix Policy = "suffix"
)

// Config controls matching tolerance.
type Config struct {
	// SuffixLength is the trailing digit count compared by the fuzzy policy.
	SuffixLength int
	// FuzzyEnabled toggles the suffix policy.
	FuzzyEnabled bool
}

// DefaultConfig returns the reference matching policy: exact plus a
// 10-digit-suffix fallback.
func DefaultConfig() Config {
	return Config{SuffixLength: 10, FuzzyEnabled: true}
}

// Pair records which candidate from each document produced a match.
type Pair struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Policy Policy `json:"policy"`
}

// Result is the verdict for one comparison. The full candidate lists of both
// documents are always carried so a human can verify or override an automatic
// "no match"; they are never discarded.
type Result struct {
	// Matched reports whether any policy found a common identifier.
	Matched bool `json:"matched"`
	// Values holds the de-duplicated matched identifiers in first-found order.
	Values []string `json:"values,omitempty"`
	// Pairs records the contributing candidate pairs, for diagnostics.
	Pairs []Pair `json:"pairs,omitempty"`
	// CandidatesA and CandidatesB are the full per-document candidate lists.
	CandidatesA []extract.Candidate `json:"candidates_a"`
	CandidatesB []extract.Candidate `json:"candidates_b"`
}

// Match applies the exact policy, then (if enabled) the fuzzy suffix policy,
// unions the results, and de-duplicates by value preserving first-found order.
func Match(a, b []extract.Candidate, cfg Config) Result {
	res := Result{
		CandidatesA: a,
		CandidatesB: b,
	}

	seen := make(map[string]struct{})
	add := func(value string, pair Pair) {
		res.Pairs = append(res.Pairs, pair)
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		res.Values = append(res.Values, value)
	}

	bValues := make(map[string]struct{}, len(b))
	for _, c := range b {
		bValues[c.Value] = struct{}{}
	}

	for _, ca := range a {
		if _, ok := bValues[ca.Value]; ok {
			add(ca.Value, Pair{A: ca.Value, B: ca.Value, Policy: PolicyExact})
		}
	}

	if cfg.FuzzyEnabled && cfg.SuffixLength > 0 {
		for _, ca := range a {
			for _, cb := range b {
				if ca.Value == cb.Value {
					continue // covered by the exact policy
				}
				if sa, ok := suffix(ca.Value, cfg.SuffixLength); ok {
					if sb, ok := suffix(cb.Value, cfg.SuffixLength); ok && sa == sb {
						add(ca.Value, Pair{A: ca.Value, B: cb.Value, Policy: PolicySuffix})
					}
				}
			}
		}
	}

	res.Matched = len(res.Values) > 0
	return res
}

// suffix returns the trailing n digits of value, and whether value is long
// enough to participate in suffix comparison.
func suffix(value string, n int) (string, bool) {
	if len(value) < n {
		return "", false
	}
	return value[len(value)-n:], true
}
