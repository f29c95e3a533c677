// Package interval turns an edit decision list into the complementary set of
// keep intervals on a [0, T) timeline.
//
// The conversion is split into steps that are each usable on their own:
// Translate (actions to raw cut ranges), Clamp, MergeCuts, Complement and
// MergeSmallGaps. CutsToKeep chains them.
package interval

import (
	"fmt"
	"math"
	"slices"

	"github.com/forPelevin/takeclean/internal/types"
)

const (
	// CutTolerance merges cuts that touch or nearly touch.
	CutTolerance = 0.001
	// DefaultGapTolerance absorbs float noise between keep intervals.
	DefaultGapTolerance = 0.005
)

// Skip reasons for malformed actions.
const (
	SkipUnknownType = "unknown_type"
	SkipNonFinite   = "non_finite"
	SkipEmpty       = "empty"
)

// Translate converts actions into raw cut ranges. A tighten_pause keeps the
// first TargetMS of its pause by moving its start edge forward. Malformed or
// empty actions are skipped and reported, never returned as errors.
func Translate(actions []types.CutAction) ([]types.Interval, []types.Skip) {
	cuts := make([]types.Interval, 0, len(actions))
	var skipped []types.Skip
	for i, a := range actions {
		if !a.Type.Valid() {
			skipped = append(skipped, types.Skip{Index: i, Reason: SkipUnknownType})
			continue
		}
		if !finite(a.Start) || !finite(a.End) {
			skipped = append(skipped, types.Skip{Index: i, Reason: SkipNonFinite})
			continue
		}
		start := a.Start
		if a.Type == types.ActionTightenPause && a.TargetMS > 0 {
			start += float64(a.TargetMS) / 1000
		}
		if a.End <= start {
			skipped = append(skipped, types.Skip{Index: i, Reason: SkipEmpty})
			continue
		}
		cuts = append(cuts, types.Interval{Start: start, End: a.End})
	}
	return cuts, skipped
}

// Clamp limits cuts to [0, end] and drops those left empty.
func Clamp(cuts []types.Interval, end float64) []types.Interval {
	out := make([]types.Interval, 0, len(cuts))
	for _, c := range cuts {
		s, e := math.Max(0, c.Start), math.Min(end, c.End)
		if e > s {
			out = append(out, types.Interval{Start: s, End: e})
		}
	}
	return out
}

// MergeCuts sorts cuts and merges those overlapping or within tol of each other.
func MergeCuts(cuts []types.Interval, tol float64) []types.Interval {
	sorted := slices.Clone(cuts)
	sortByStart(sorted)
	out := make([]types.Interval, 0, len(sorted))
	for _, c := range sorted {
		if n := len(out); n > 0 && c.Start <= out[n-1].End+tol {
			out[n-1].End = math.Max(out[n-1].End, c.End)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Complement walks merged cuts left to right and returns the uncovered parts
// of [0, end).
func Complement(merged []types.Interval, end float64) []types.Interval {
	var keep []types.Interval
	cursor := 0.0
	for _, c := range merged {
		if cursor < c.Start {
			keep = append(keep, types.Interval{Start: cursor, End: c.Start})
		}
		cursor = math.Max(cursor, c.End)
	}
	if cursor < end {
		keep = append(keep, types.Interval{Start: cursor, End: end})
	}
	return keep
}

// MergeSmallGaps joins neighbouring intervals separated by less than tol.
func MergeSmallGaps(keeps []types.Interval, tol float64) []types.Interval {
	out := make([]types.Interval, 0, len(keeps))
	for _, k := range keeps {
		if n := len(out); n > 0 && k.Start-out[n-1].End < tol {
			out[n-1].End = math.Max(out[n-1].End, k.End)
			continue
		}
		out = append(out, k)
	}
	return out
}

// CutsToKeep runs the full conversion with DefaultGapTolerance.
func CutsToKeep(cuts []types.Interval, end float64) []types.Interval {
	return CutsToKeepTol(cuts, end, DefaultGapTolerance)
}

// CutsToKeepTol is CutsToKeep with an explicit keep-gap tolerance.
func CutsToKeepTol(cuts []types.Interval, end, gapTol float64) []types.Interval {
	if !finite(end) || end <= 0 {
		return nil
	}
	merged := MergeCuts(Clamp(cuts, end), CutTolerance)
	keep := MergeSmallGaps(Complement(merged, end), math.Max(0, gapTol))
	mustBeDisjoint(keep, end)
	return keep
}

// Total sums interval durations.
func Total(ivs []types.Interval) float64 {
	var sum float64
	for _, iv := range ivs {
		sum += iv.Duration()
	}
	return sum
}

// MapTime converts a source time into the cleaned timeline described by keep.
// Times inside a cut map to the start of the next kept material and report
// false.
func MapTime(keep []types.Interval, t float64) (float64, bool) {
	var out float64
	for _, k := range keep {
		switch {
		case t < k.Start:
			return out, false
		case t < k.End:
			return out + (t - k.Start), true
		}
		out += k.Duration()
	}
	return out, false
}

func mustBeDisjoint(keep []types.Interval, end float64) {
	prev := 0.0
	for i, k := range keep {
		if !(k.End > k.Start) || k.Start < prev || k.End > end {
			panic(fmt.Sprintf("interval: invariant violated at keep[%d]=%+v (prev end %v, timeline %v)", i, k, prev, end))
		}
		prev = k.End
	}
}

func sortByStart(ivs []types.Interval) {
	slices.SortStableFunc(ivs, func(a, b types.Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
