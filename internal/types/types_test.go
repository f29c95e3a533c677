package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptEndSkipsBrokenRanges(t *testing.T) {
	tr := Transcript{Segments: []Segment{
		{Start: 0, End: 1.4, Words: []Word{
			{Start: 0, End: 0.4, Word: "hello"},
			{Start: 1.0, End: 1.6, Word: "world"},
			{Start: 2, End: math.Inf(1), Word: "bad"},
			{Start: math.NaN(), End: 9, Word: "nan"},
		}},
		{Start: 3, End: math.Inf(1), Text: "runaway"},
		{Start: 8, End: 5, Text: "inverted"},
	}}
	require.InDelta(t, 1.6, tr.End(), 1e-9)
	require.Zero(t, Transcript{}.End())
}
