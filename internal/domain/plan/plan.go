// Package plan is the pure decision core. It turns a script, a transcript and
// detected silences into an edit decision list without touching audio.
//
// Stages run in order, each consuming the previous stage's full output:
// segmentation, alignment, retake sequencing, silence snapping, action
// derivation and finally keep-interval algebra.
package plan

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/domain/align"
	"github.com/forPelevin/takeclean/internal/domain/edl"
	"github.com/forPelevin/takeclean/internal/domain/fillers"
	"github.com/forPelevin/takeclean/internal/domain/matcher"
	"github.com/forPelevin/takeclean/internal/domain/segment"
	"github.com/forPelevin/takeclean/internal/domain/snap"
	"github.com/forPelevin/takeclean/internal/domain/textnorm"
	"github.com/forPelevin/takeclean/internal/types"
)

type Input struct {
	// Script is the text the narrator read. Empty selects script-less mode.
	Script     string
	Transcript types.Transcript
	Silences   []types.SilenceRange
	// Duration of the recording in seconds. Zero falls back to the transcript end.
	Duration float64
}

// Build runs the core. It fails only with ErrInvalidConfig or ErrTimeout;
// malformed transcript items are dropped and recorded.
func Build(ctx context.Context, cfg config.Config, in Input) (types.EDL, error) {
	if err := cfg.Validate(); err != nil {
		return types.EDL{}, err
	}

	total := in.Duration
	if !(total > 0) || math.IsInf(total, 0) {
		total = in.Transcript.End()
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		total = 0
	}

	m, err := matcher.New(cfg.MatchTimeout, 0)
	if err != nil {
		return types.EDL{}, err
	}
	aligner := align.Aligner{
		Matcher:   m,
		Threshold: cfg.RetakeSimThreshold,
		Lookback:  cfg.Lookback,
		Lookahead: cfg.Lookahead,
	}
	words := align.Words(in.Transcript)

	var res align.Result
	if strings.TrimSpace(in.Script) != "" {
		sentences, err := segment.Segment(textnorm.Normalize(in.Script), cfg.Segment)
		if err != nil {
			return types.EDL{}, err
		}
		res, err = aligner.Script(ctx, sentences, words)
		if err != nil {
			return types.EDL{}, err
		}
	} else {
		res, err = aligner.Scriptless(ctx, in.Transcript)
		if err != nil {
			return types.EDL{}, err
		}
	}

	kept, dropped := cfg.Sequencer().Run(res.Candidates)
	dropped = append(dropped, res.Alternates...)

	snapper := snap.New(in.Silences)
	final := make([]types.CandidateSegment, 0, len(kept))
	for _, c := range kept {
		r := snapper.Snap(c.Start, c.End, cfg.SnapRadius, cfg.MinSegment)
		c.Start, c.End, c.SnapLabel = r.Start, r.End, string(r.Label)
		if r.TooShort {
			dropped = append(dropped, c.Drop(types.ReasonTooShort))
			continue
		}
		final = append(final, c)
	}

	d := deriver{
		cfg:      cfg,
		aligner:  aligner,
		words:    words,
		silences: snap.MergeSilences(in.Silences),
		dropped:  dropped,
		total:    total,
		timeouts: res.Timeouts,
	}
	actions, err := d.actions(ctx, final)
	if err != nil {
		return types.EDL{}, err
	}

	segments := append(slices.Clone(final), dropped...)
	slices.SortStableFunc(segments, func(a, b types.CandidateSegment) int {
		return cmp.Compare(a.Start, b.Start)
	})

	return edl.Build(edl.Input{
		Duration:  total,
		Actions:   actions,
		Segments:  segments,
		Unmatched: res.Unmatched,
		MergeGap:  cfg.MergeGap,
		Timeouts:  d.timeouts,
	}), nil
}

// span is a run of kept material, possibly several overlapping segments.
type span struct {
	start, end float64
	lead       string
}

type deriver struct {
	cfg      config.Config
	aligner  align.Aligner
	words    []align.Word
	silences []types.SilenceRange
	dropped  []types.CandidateSegment
	total    float64
	timeouts int
}

func (d *deriver) actions(ctx context.Context, final []types.CandidateSegment) ([]types.CutAction, error) {
	if len(final) == 0 {
		if d.total <= 0 {
			return nil, nil
		}
		return []types.CutAction{{Type: types.ActionCut, Start: 0, End: d.total}}, nil
	}

	spans := mergeSpans(final)
	pad := d.cfg.SafetyPad
	var out []types.CutAction

	if first := spans[0].start - pad; first > 0 {
		out = append(out, cut(0, first, types.ReasonLeadIn))
	}
	for i := 1; i < len(spans); i++ {
		a, b := spans[i-1].end, spans[i].start
		if !align.Spoken(d.words, a, b) {
			if b-a > d.cfg.LongSilence {
				out = append(out, d.tighten(a, b))
			}
			continue
		}
		if b-pad <= a+pad {
			continue
		}
		reason, err := d.classify(ctx, a, b, spans[i].lead)
		if err != nil {
			return nil, err
		}
		out = append(out, cut(a+pad, b-pad, reason))
	}
	if last := spans[len(spans)-1].end + pad; last < d.total {
		out = append(out, cut(last, d.total, types.ReasonTail))
	}

	for _, sp := range spans {
		for _, s := range d.silences {
			if s.Start < sp.start || s.End > sp.end || s.End-s.Start <= d.cfg.LongSilence {
				continue
			}
			if !align.Spoken(d.words, s.Start, s.End) {
				out = append(out, d.tighten(s.Start, s.End))
			}
		}
	}

	detector := fillers.Detector{Strict: d.cfg.FillerStrict}
	for _, c := range final {
		for _, w := range detector.Find(align.Within(d.words, c.Start, c.End)) {
			out = append(out, cut(w.Start, w.End, types.ReasonFiller))
		}
	}

	slices.SortStableFunc(out, func(x, y types.CutAction) int {
		return cmp.Compare(x.Start, y.Start)
	})
	return out, nil
}

// classify names why speech between two kept spans is removed.
func (d *deriver) classify(ctx context.Context, a, b float64, next string) (string, error) {
	for _, reason := range []string{types.ReasonPreTake, types.ReasonRetake, types.ReasonTooShort, types.ReasonInvalid} {
		if d.overlapsDropped(a, b, reason) {
			if reason == types.ReasonPreTake {
				return types.ReasonRetakePreTake, nil
			}
			return reason, nil
		}
	}

	var gap strings.Builder
	for _, w := range align.Within(d.words, a, b) {
		gap.WriteString(w.Key)
	}
	ok, err := d.aligner.FalseStart(ctx, gap.String(), textnorm.Comparable(next), &d.timeouts)
	if err != nil {
		return "", fmt.Errorf("classify gap %.3f-%.3f: %w", a, b, err)
	}
	if ok {
		return types.ReasonFalseStart, nil
	}
	return types.ReasonUnscripted, nil
}

func (d *deriver) overlapsDropped(a, b float64, reason string) bool {
	for _, c := range d.dropped {
		if c.DropReason == reason && math.Min(c.End, b)-math.Max(c.Start, a) > 0 {
			return true
		}
	}
	return false
}

func (d *deriver) tighten(a, b float64) types.CutAction {
	return types.CutAction{
		Type:     types.ActionTightenPause,
		Start:    a,
		End:      b,
		TargetMS: d.cfg.TightenTargetMS,
		Reason:   types.ReasonLongSilence,
	}
}

func cut(a, b float64, reason string) types.CutAction {
	return types.CutAction{Type: types.ActionCut, Start: a, End: b, Reason: reason}
}

// mergeSpans unions kept segments in time order. Soft-mode pre-takes may
// overlap their neighbours.
func mergeSpans(final []types.CandidateSegment) []span {
	sorted := slices.Clone(final)
	slices.SortStableFunc(sorted, func(a, b types.CandidateSegment) int {
		return cmp.Compare(a.Start, b.Start)
	})
	var out []span
	for _, c := range sorted {
		if n := len(out); n > 0 && c.Start <= out[n-1].end {
			out[n-1].end = math.Max(out[n-1].end, c.End)
			continue
		}
		out = append(out, span{start: c.Start, end: c.End, lead: c.Text})
	}
	return out
}
