// Package textnorm prepares script and transcript text for segmentation and
// matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var variantReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"―", "—",
	"‒", "—",
	"–", "—",
	"〜", "～",
)

// Normalize applies NFKC, folds punctuation variants and collapses every
// whitespace run (newlines included) to one space.
func Normalize(s string) string {
	s = variantReplacer.Replace(s)
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

var folder = cases.Fold()

// Comparable reduces text to case-folded letters and digits so that takes can
// be compared regardless of punctuation and spacing.
func Comparable(s string) string {
	s = folder.String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
