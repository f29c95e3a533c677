// Package edl assembles the edit decision list document: the cut actions, the
// keep intervals derived from them, and summary statistics.
package edl

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/forPelevin/takeclean/internal/domain/interval"
	"github.com/forPelevin/takeclean/internal/types"
)

// Version is the document format version written by Build.
const Version = 1

type Input struct {
	Duration  float64
	Actions   []types.CutAction
	Segments  []types.CandidateSegment
	Unmatched []int
	// MergeGap joins keep intervals separated by less than this many seconds.
	MergeGap float64
	Timeouts int
}

// Build derives keep intervals from the actions and fills in stats. Malformed
// actions stay in Actions and are listed in Skipped by index.
func Build(in Input) types.EDL {
	cuts, skipped := interval.Translate(in.Actions)
	keep := interval.CutsToKeepTol(cuts, in.Duration, in.MergeGap)

	doc := types.EDL{
		Version:   Version,
		Duration:  in.Duration,
		Actions:   nonNil(in.Actions),
		Keep:      nonNil(keep),
		Segments:  in.Segments,
		Skipped:   skipped,
		Unmatched: in.Unmatched,
	}
	doc.Stats = stats(doc, in.Timeouts)
	return doc
}

func stats(doc types.EDL, timeouts int) types.Stats {
	s := types.Stats{
		KeptSeconds:   interval.Total(doc.Keep),
		KeepCount:     len(doc.Keep),
		ActionCounts:  map[string]int{},
		MatchTimeouts: timeouts,
	}
	s.CutSeconds = max(0, doc.Duration-s.KeptSeconds)

	for i, a := range doc.Actions {
		if slices.ContainsFunc(doc.Skipped, func(sk types.Skip) bool { return sk.Index == i }) {
			continue
		}
		key := a.Reason
		if key == "" {
			key = string(a.Type)
		}
		s.ActionCounts[key]++
	}
	for _, seg := range doc.Segments {
		switch seg.DropReason {
		case types.ReasonRetake, types.ReasonPreTake:
			s.RetakesDropped++
		}
	}
	return s
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc types.EDL) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode edl: %w", err)
	}
	return nil
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (types.EDL, error) {
	var doc types.EDL
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return types.EDL{}, fmt.Errorf("decode edl: %w", err)
	}
	if doc.Version != Version {
		return types.EDL{}, fmt.Errorf("decode edl: unsupported version %d", doc.Version)
	}
	return doc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
