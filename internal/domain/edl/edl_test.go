package edl

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/takeclean/internal/types"
)

func TestBuild(t *testing.T) {
	doc := Build(Input{
		Duration: 6,
		Actions: []types.CutAction{
			{Type: types.ActionCut, Start: 1, End: 2, Reason: types.ReasonFiller},
			{Type: types.ActionCut, Start: 4, End: 5, Reason: types.ReasonRetake},
			{Type: types.ActionCut, Start: math.Inf(1), End: 5, Reason: types.ReasonRetake},
			{Type: types.ActionTightenPause, Start: 5.5, End: 5.6, TargetMS: 200},
		},
		Segments: []types.CandidateSegment{
			{Sentence: 0, Start: 0, End: 1, Kept: true},
			{Sentence: 1, Start: 4, End: 5, DropReason: types.ReasonRetake},
			{Sentence: 1, Start: 4, End: 5, DropReason: types.ReasonTooShort},
		},
		Unmatched: []int{3},
		MergeGap:  0.005,
		Timeouts:  2,
	})

	require.Equal(t, Version, doc.Version)
	require.Equal(t, []types.Interval{{Start: 0, End: 1}, {Start: 2, End: 4}, {Start: 5, End: 6}}, doc.Keep)
	require.Equal(t, []types.Skip{{Index: 2, Reason: "non_finite"}, {Index: 3, Reason: "empty"}}, doc.Skipped)
	require.Len(t, doc.Actions, 4, "skipped actions stay in the document")
	require.Equal(t, map[string]int{types.ReasonFiller: 1, types.ReasonRetake: 1}, doc.Stats.ActionCounts)
	require.InDelta(t, 4.0, doc.Stats.KeptSeconds, 1e-9)
	require.InDelta(t, 2.0, doc.Stats.CutSeconds, 1e-9)
	require.Equal(t, 3, doc.Stats.KeepCount)
	require.Equal(t, 1, doc.Stats.RetakesDropped)
	require.Equal(t, 2, doc.Stats.MatchTimeouts)
}

func TestBuild_EverythingCut(t *testing.T) {
	doc := Build(Input{
		Duration: 3,
		Actions:  []types.CutAction{{Type: types.ActionCut, Start: 0, End: 3}},
	})
	require.NotNil(t, doc.Keep)
	require.Empty(t, doc.Keep)
	require.Equal(t, map[string]int{"cut": 1}, doc.Stats.ActionCounts)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	require.Contains(t, buf.String(), `"keep": []`)
}

func TestEncodeDecode(t *testing.T) {
	doc := Build(Input{
		Duration: 10,
		Actions: []types.CutAction{
			{Type: types.ActionTightenPause, Start: 2, End: 4, TargetMS: 340, Reason: types.ReasonLongSilence},
		},
		Segments:  []types.CandidateSegment{{Sentence: 0, Text: "hi", Start: 0, End: 2, Kept: true, SnapLabel: "end"}},
		Unmatched: []int{1},
	})
	doc.RunID = "run"
	doc.Stem = "chapter-01"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version": 7}`))
	require.Error(t, err)
}
