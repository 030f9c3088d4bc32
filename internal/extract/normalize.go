package extract

import (
	"strings"

	"golang.org/x/text/width"
)

// groupSeparators are characters OCR engines commonly substitute for digit
// grouping marks. They are stripped only when flanked by digits on both sides
// so that word boundaries elsewhere in the text survive for label matching.
const groupSeparators = ",'’- "

// Normalize prepares raw OCR text for extraction: full-width digits are folded
// to their ASCII forms and grouping separators inside digit runs are removed.
func Normalize(text string) string {
	folded := width.Fold.String(text)
	return stripRunSeparators(folded)
}

// stripRunSeparators removes a separator rune when its immediate neighbors are
// both digits, joining runs like "711 260 0003240" or "7,112,600,003,240" into
// a single digit run. Whitespace between words is left untouched.
func stripRunSeparators(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if strings.ContainsRune(groupSeparators, r) &&
			i > 0 && isDigit(runes[i-1]) &&
			i+1 < len(runes) && isDigit(runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
