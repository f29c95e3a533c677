// Package retake resolves out-of-order and overlapping takes into a single
// monotonic timeline.
//
// The Sequencer walks candidates in reading order while tracking the highest
// end time kept so far. A candidate ending clearly before that mark is a stale
// earlier take; one starting before it is a partial overlap. Mode decides what
// happens to each.
package retake

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/takeclean/internal/types"
)

type Mode int

const (
	// ModeStrict drops regressions and partial overlaps.
	ModeStrict Mode = iota
	// ModeSoft keeps regressions flagged as pre-takes and clamps overlaps.
	ModeSoft
	// ModeOff keeps everything valid as-is.
	ModeOff
)

// DefaultEpsilon absorbs alignment jitter, in seconds.
const DefaultEpsilon = 0.02

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeSoft:
		return "soft"
	case ModeOff:
		return "off"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	return m >= ModeStrict && m <= ModeOff
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return ModeStrict, nil
	case "soft":
		return ModeSoft, nil
	case "off":
		return ModeOff, nil
	}
	return 0, fmt.Errorf("%w: unknown retake mode %q", types.ErrInvalidConfig, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m.Valid() {
		return []byte(m.String()), nil
	}
	return nil, fmt.Errorf("%w: retake mode %d", types.ErrInvalidConfig, int(m))
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type Sequencer struct {
	Mode    Mode
	Epsilon float64
}

// Run returns the kept and dropped candidates, both in input order. Inputs are
// not modified; every output is a fresh copy.
func (s Sequencer) Run(segs []types.CandidateSegment) (kept, dropped []types.CandidateSegment) {
	eps := math.Max(0, s.Epsilon)
	lastEnd, started := 0.0, false

	for _, seg := range segs {
		if !(seg.End > seg.Start) || math.IsInf(seg.Start, 0) || math.IsInf(seg.End, 0) {
			dropped = append(dropped, seg.Drop(types.ReasonInvalid))
			continue
		}
		seg.Kept = true
		seg.DropReason = ""

		if !started {
			started = true
			lastEnd = seg.End
			kept = append(kept, seg)
			continue
		}

		switch {
		case seg.End+eps < lastEnd:
			switch s.Mode {
			case ModeStrict:
				dropped = append(dropped, seg.Drop(types.ReasonPreTake))
				continue
			case ModeSoft:
				seg.PreTake = true
			}
		case seg.Start+eps < lastEnd:
			switch s.Mode {
			case ModeStrict:
				dropped = append(dropped, seg.Drop(types.ReasonPreTake))
				continue
			case ModeSoft:
				start := math.Max(seg.Start, lastEnd)
				if start >= seg.End {
					dropped = append(dropped, seg.Drop(types.ReasonPreTake))
					continue
				}
				seg.Start = start
			}
		}

		lastEnd = math.Max(lastEnd, seg.End)
		kept = append(kept, seg)
	}
	return kept, dropped
}
