package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToJSON renders a comparison result as indented JSON.
func ToJSON(res *CompareResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders a comparison result as human-readable text: the
// verdict, the matched identifiers, and the per-document raw text and
// candidate lists.
func ToPlainText(res *CompareResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nil result")
	}

	var out strings.Builder

	if res.Matched {
		out.WriteString("MATCH FOUND\n")
		out.WriteString(fmt.Sprintf("Matching identifier(s): %s\n", strings.Join(res.Values, ", ")))
	} else {
		out.WriteString("NO MATCH FOUND\n")
	}

	for _, doc := range res.Documents {
		out.WriteString(fmt.Sprintf("\nDocument %d:\n", doc.Index+1))
		if len(doc.Candidates) == 0 {
			out.WriteString("  candidates: (none)\n")
		} else {
			for _, c := range doc.Candidates {
				if c.Label != "" {
					out.WriteString(fmt.Sprintf("  candidate %s (%s: %q)\n", c.Value, c.Source, c.Label))
				} else {
					out.WriteString(fmt.Sprintf("  candidate %s (%s)\n", c.Value, c.Source))
				}
			}
		}
		out.WriteString("  text:\n")
		for _, line := range strings.Split(strings.TrimRight(doc.RawText, "\n"), "\n") {
			out.WriteString("    " + line + "\n")
		}
	}

	return out.String(), nil
}
