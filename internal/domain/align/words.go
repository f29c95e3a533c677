package align

import (
	"math"
	"slices"
	"strings"

	"github.com/forPelevin/takeclean/internal/domain/textnorm"
	"github.com/forPelevin/takeclean/internal/types"
)

// Word is one transcript token prepared for matching.
type Word struct {
	Text    string
	Key     string
	Start   float64
	End     float64
	Segment int
}

// Words flattens the transcript into timed tokens in time order.
//   - Word timestamps are preferred when a segment has them.
//   - A segment without words contributes one token spanning the segment.
//
// Tokens with an inverted or non-finite range, or with nothing left after
// normalization (punctuation-only), are skipped.
func Words(tr types.Transcript) []Word {
	var out []Word
	for si, s := range tr.Segments {
		if len(s.Words) == 0 {
			out = appendWord(out, si, s.Text, s.Start, s.End)
			continue
		}
		for _, w := range s.Words {
			out = appendWord(out, si, w.Word, w.Start, w.End)
		}
	}
	slices.SortStableFunc(out, func(a, b Word) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	return out
}

func appendWord(out []Word, seg int, text string, start, end float64) []Word {
	if math.IsNaN(start) || math.IsInf(start, 0) || math.IsInf(end, 0) || !(end > start) {
		return out
	}
	text = strings.TrimSpace(text)
	key := textnorm.Comparable(text)
	if key == "" {
		return out
	}
	return append(out, Word{Text: text, Key: key, Start: start, End: end, Segment: seg})
}

// Spoken reports whether any word overlaps [start, end) by more than half of
// its own duration.
func Spoken(words []Word, start, end float64) bool {
	for _, w := range words {
		if w.Start >= end {
			break
		}
		overlap := math.Min(w.End, end) - math.Max(w.Start, start)
		if overlap > 0 && overlap*2 > w.End-w.Start {
			return true
		}
	}
	return false
}

// Within returns the words fully inside [start, end].
func Within(words []Word, start, end float64) []Word {
	var out []Word
	for _, w := range words {
		if w.Start >= end {
			break
		}
		if w.Start >= start && w.End <= end {
			out = append(out, w)
		}
	}
	return out
}
