// Package snap moves segment edges onto nearby silence boundaries so cuts land
// in quiet audio rather than on speech.
package snap

import (
	"math"
	"slices"
	"sort"

	"github.com/forPelevin/takeclean/internal/types"
)

// Label records which edges moved.
type Label string

const (
	LabelNone  Label = "no-snap"
	LabelStart Label = "start"
	LabelEnd   Label = "end"
	LabelBoth  Label = "both"
)

type Result struct {
	Start    float64
	End      float64
	Label    Label
	TooShort bool
}

// Snapper holds the sorted boundary points of a merged silence set.
type Snapper struct {
	points []float64
}

// New merges the ranges and indexes every silence start and end.
func New(silences []types.SilenceRange) Snapper {
	merged := MergeSilences(silences)
	points := make([]float64, 0, 2*len(merged))
	for _, s := range merged {
		points = append(points, s.Start, s.End)
	}
	return Snapper{points: points}
}

// MergeSilences drops invalid ranges, sorts the rest and merges overlaps.
func MergeSilences(silences []types.SilenceRange) []types.SilenceRange {
	out := make([]types.SilenceRange, 0, len(silences))
	for _, s := range silences {
		if !finite(s.Start) || !finite(s.End) || s.End <= s.Start {
			continue
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b types.SilenceRange) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	merged := out[:0]
	for _, s := range out {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			merged[n-1].End = math.Max(merged[n-1].End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Snap is a convenience wrapper around New(silences).Snap.
func Snap(t0, t1 float64, silences []types.SilenceRange, radius, minDuration float64) Result {
	return New(silences).Snap(t0, t1, radius, minDuration)
}

// Snap moves each edge independently to the closest boundary point within
// radius. An edge never moves past the other (original) edge. On equal
// distance the point that lengthens the segment wins: the earlier point for
// the start edge and the later point for the end edge.
func (s Snapper) Snap(t0, t1, radius, minDuration float64) Result {
	res := Result{Start: t0, End: t1, Label: LabelNone}

	movedStart, movedEnd := false, false
	if p, ok := s.nearest(t0, radius, func(p float64) bool { return p < t1 }, false); ok && p != t0 {
		res.Start = p
		movedStart = true
	}
	if p, ok := s.nearest(t1, radius, func(p float64) bool { return p > t0 }, true); ok && p != t1 {
		res.End = p
		movedEnd = true
	}

	switch {
	case movedStart && movedEnd:
		res.Label = LabelBoth
	case movedStart:
		res.Label = LabelStart
	case movedEnd:
		res.Label = LabelEnd
	}

	if res.End < res.Start {
		res.End = res.Start
	}
	res.TooShort = res.End-res.Start < math.Max(0, minDuration)
	return res
}

func (s Snapper) nearest(t, radius float64, allowed func(float64) bool, preferLater bool) (float64, bool) {
	if radius < 0 || len(s.points) == 0 {
		return 0, false
	}
	lo := sort.SearchFloat64s(s.points, t-radius)
	best, bestDist, found := 0.0, math.Inf(1), false
	for i := lo; i < len(s.points) && s.points[i] <= t+radius; i++ {
		p := s.points[i]
		if !allowed(p) {
			continue
		}
		d := math.Abs(p - t)
		switch {
		case d < bestDist:
			best, bestDist, found = p, d, true
		case d == bestDist && preferLater && p > best:
			best = p
		case d == bestDist && !preferLater && p < best:
			best = p
		}
	}
	return best, found
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
