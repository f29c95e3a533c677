// Package align anchors script sentences to time ranges of a transcript.
//
// In script mode every sentence is searched for in a window of transcript
// words around the previous sentence's position. All non-overlapping takes
// that reach the similarity threshold are collected and the last one wins,
// because narrators re-read a sentence after a slip. Without a script, each
// transcript segment is compared with the few segments that follow it.
package align

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/takeclean/internal/domain/matcher"
	"github.com/forPelevin/takeclean/internal/domain/textnorm"
	"github.com/forPelevin/takeclean/internal/types"
)

const (
	// maxWindowWords caps how far a single window may grow.
	maxWindowWords = 240
	// followers is how many later segments a segment is compared with in
	// script-less mode.
	followers = 3
	// minFalseStartRunes keeps very short utterances from matching the start
	// of every following segment.
	minFalseStartRunes = 6
)

// Aligner holds the matching parameters for one run.
type Aligner struct {
	Matcher   *matcher.Matcher
	Threshold float64
	Lookback  float64
	Lookahead float64
}

// Result lists candidates in reading order. Alternates are earlier takes,
// already marked as dropped.
type Result struct {
	Candidates []types.CandidateSegment
	Alternates []types.CandidateSegment
	Unmatched  []int
	Timeouts   int
}

type take struct {
	last       int
	start, end float64
	sim        float64
}

// Script aligns sentences to words. A comparison that runs past the matcher's
// own timeout counts as not matched; an expired ctx aborts with ErrTimeout.
func (a Aligner) Script(ctx context.Context, sentences []types.TextSpan, words []Word) (Result, error) {
	var res Result
	cursor := 0.0
	for k, s := range sentences {
		if err := ctxErr(ctx); err != nil {
			return Result{}, err
		}
		key := textnorm.Comparable(s.Text)
		if key == "" {
			res.Unmatched = append(res.Unmatched, k)
			continue
		}
		takes, err := a.findTakes(ctx, key, words, cursor, &res.Timeouts)
		if err != nil {
			return Result{}, fmt.Errorf("align sentence %d: %w", k, err)
		}
		if len(takes) == 0 {
			res.Unmatched = append(res.Unmatched, k)
			continue
		}
		for ti, tk := range takes {
			c := types.CandidateSegment{
				Sentence:   k,
				Take:       ti,
				Text:       s.Text,
				Start:      tk.start,
				End:        tk.end,
				Similarity: tk.sim,
				Kept:       true,
			}
			if ti < len(takes)-1 {
				res.Alternates = append(res.Alternates, c.Drop(types.ReasonRetake))
				continue
			}
			res.Candidates = append(res.Candidates, c)
		}
		cursor = takes[len(takes)-1].end
	}
	return res, nil
}

func (a Aligner) findTakes(ctx context.Context, key string, words []Word, cursor float64, timeouts *int) ([]take, error) {
	n := utf8.RuneCountInString(key)
	budget := matcher.Budget(n, a.Threshold)
	lo, hi := cursor-a.Lookback, cursor+a.Lookahead

	var takes []take
	for i := 0; i < len(words); {
		if words[i].Start < lo {
			i++
			continue
		}
		if words[i].Start > hi {
			break
		}
		best, ok, err := a.bestWindow(ctx, key, n, budget, words, i, timeouts)
		if err != nil {
			return nil, err
		}
		if !ok {
			i++
			continue
		}
		// A stray word before the sentence can still match; prefer a later
		// start inside the same take when it scores higher.
		for i+1 <= best.last {
			next, ok, err := a.bestWindow(ctx, key, n, budget, words, i+1, timeouts)
			if err != nil {
				return nil, err
			}
			if !ok || next.sim <= best.sim {
				break
			}
			best = next
			i++
		}
		takes = append(takes, best)
		i = best.last + 1
	}
	return takes, nil
}

// bestWindow scores every window starting at word i whose length is within
// the edit budget of the sentence.
func (a Aligner) bestWindow(ctx context.Context, key string, n, budget int, words []Word, i int, timeouts *int) (take, bool, error) {
	var (
		b      strings.Builder
		length int
		best   take
		found  bool
	)
	for j := i; j < len(words) && j-i < maxWindowWords; j++ {
		b.WriteString(words[j].Key)
		length += utf8.RuneCountInString(words[j].Key)
		if length < n-budget {
			continue
		}
		if length > n+budget {
			break
		}
		ok, sim, err := a.compare(ctx, key, b.String(), timeouts)
		if err != nil {
			return take{}, false, err
		}
		if ok && (!found || sim > best.sim) {
			best = take{last: j, start: words[i].Start, end: words[j].End, sim: sim}
			found = true
		}
	}
	return best, found, nil
}

// compare reports a match; per-comparison timeouts count as no match.
func (a Aligner) compare(ctx context.Context, x, y string, timeouts *int) (bool, float64, error) {
	r, err := a.Matcher.Compare(ctx, x, y, a.Threshold)
	if err == nil {
		return r.Matched, r.Similarity, nil
	}
	if cerr := ctxErr(ctx); cerr != nil {
		return false, 0, cerr
	}
	if errors.Is(err, types.ErrTimeout) {
		*timeouts++
		return false, 0, nil
	}
	return false, 0, err
}

type utterance struct {
	index      int
	text, key  string
	start, end float64
}

// Scriptless treats every transcript segment as a candidate. A segment that
// repeats one of the next few segments, or the opening of one (a false start),
// becomes an alternate of the later segment.
func (a Aligner) Scriptless(ctx context.Context, tr types.Transcript) (Result, error) {
	var utts []utterance
	for i, s := range tr.Segments {
		text := strings.TrimSpace(s.Text)
		key := textnorm.Comparable(text)
		if key == "" || !finite(s.Start) || !finite(s.End) {
			continue
		}
		utts = append(utts, utterance{index: i, text: text, key: key, start: s.Start, end: s.End})
	}

	var res Result
	for i, u := range utts {
		if err := ctxErr(ctx); err != nil {
			return Result{}, err
		}
		c := types.CandidateSegment{Sentence: u.index, Text: u.text, Start: u.start, End: u.end, Kept: true}
		repeated, err := a.repeatedLater(ctx, u, utts[i+1:min(len(utts), i+1+followers)], &res.Timeouts)
		if err != nil {
			return Result{}, fmt.Errorf("compare segment %d: %w", u.index, err)
		}
		if repeated {
			res.Alternates = append(res.Alternates, c.Drop(types.ReasonRetake))
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res, nil
}

func (a Aligner) repeatedLater(ctx context.Context, u utterance, later []utterance, timeouts *int) (bool, error) {
	for _, v := range later {
		ok, _, err := a.compare(ctx, u.key, v.key, timeouts)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		ok, err = a.FalseStart(ctx, u.key, v.key, timeouts)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// FalseStart reports whether fragment matches the opening of sentence. Both
// are in comparable form. Fragments shorter than a few runes never match.
func (a Aligner) FalseStart(ctx context.Context, fragment, sentence string, timeouts *int) (bool, error) {
	n := utf8.RuneCountInString(fragment)
	if n < minFalseStartRunes || utf8.RuneCountInString(sentence) <= n {
		return false, nil
	}
	ok, _, err := a.compare(ctx, fragment, prefix(sentence, n), timeouts)
	return ok, err
}

func prefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	}
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
