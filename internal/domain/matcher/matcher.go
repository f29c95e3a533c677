// Package matcher scores how closely two pieces of text agree using a capped
// Levenshtein distance.
//
// BoundedDistance is the primitive. Matcher layers a per-comparison timeout
// and an LRU cache on top of it, because alignment compares the same sentence
// against many overlapping transcript windows and retake detection revisits
// the same pairs.
package matcher

import (
	"context"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

type pairKey struct {
	a, b    string
	maxDist int
}

// Result describes one comparison.
type Result struct {
	Distance   int
	Similarity float64
	Matched    bool
}

type Matcher struct {
	timeout time.Duration
	cache   *lru.Cache[pairKey, int]
}

// New returns a Matcher. A zero timeout disables the per-comparison deadline.
func New(timeout time.Duration, cacheSize int) (*Matcher, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[pairKey, int](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Matcher{timeout: timeout, cache: cache}, nil
}

// Compare checks whether a and b reach threshold similarity. Inputs are
// expected in comparable form (see textnorm.Comparable). The deadline is the
// earlier of the context deadline and the per-comparison timeout.
func (m *Matcher) Compare(ctx context.Context, a, b string, threshold float64) (Result, error) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	budget := Budget(max(la, lb), threshold)

	if a > b {
		a, b = b, a
	}
	key := pairKey{a: a, b: b, maxDist: budget}
	d, ok := m.cache.Get(key)
	if !ok {
		var err error
		d, err = BoundedDistance(a, b, budget, m.deadline(ctx))
		if err != nil {
			return Result{Distance: budget + 1}, err
		}
		m.cache.Add(key, d)
	}

	res := Result{Distance: d, Similarity: Similarity(d, la, lb)}
	res.Matched = d <= budget && res.Similarity+simEpsilon >= threshold
	return res, nil
}

func (m *Matcher) deadline(ctx context.Context) time.Time {
	var dl time.Time
	if ctx != nil {
		if d, ok := ctx.Deadline(); ok {
			dl = d
		}
	}
	if m.timeout > 0 {
		t := time.Now().Add(m.timeout)
		if dl.IsZero() || t.Before(dl) {
			dl = t
		}
	}
	return dl
}
