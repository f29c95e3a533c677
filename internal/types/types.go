package types

import (
	"errors"
	"math"
)

var (
	// ErrInvalidConfig reports malformed thresholds or segmentation limits.
	// It is returned before any processing starts.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrTimeout reports that a bounded comparison ran past its deadline.
	ErrTimeout = errors.New("timeout")
)

type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Words flattens the transcript into reading order.
func (t Transcript) Words() []Word {
	var out []Word
	for _, s := range t.Segments {
		out = append(out, s.Words...)
	}
	return out
}

// End returns the latest end time found in segments or words. Inverted or
// non-finite ranges are ignored.
func (t Transcript) End() float64 {
	var end float64
	for _, s := range t.Segments {
		if validRange(s.Start, s.End) && s.End > end {
			end = s.End
		}
		for _, w := range s.Words {
			if validRange(w.Start, w.End) && w.End > end {
				end = w.End
			}
		}
	}
	return end
}

func validRange(start, end float64) bool {
	return !math.IsNaN(start) && !math.IsInf(start, 0) && !math.IsInf(end, 0) && end > start
}

// TextSpan is a sentence-like slice of a normalized text buffer.
// Start and End are byte offsets; Text == buf[Start:End].
type TextSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type SilenceRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Interval is a half-open [Start, End) range in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (iv Interval) Duration() float64 { return iv.End - iv.Start }
