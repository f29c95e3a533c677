package matcher

import (
	"fmt"
	"time"

	"github.com/forPelevin/takeclean/internal/types"
)

// BoundedDistance returns the Levenshtein distance between a and b when it is
// at most maxDist, and maxDist+1 otherwise. Only the diagonal band
// |i-j| <= maxDist is evaluated. A non-zero deadline is checked once per row;
// passing it yields types.ErrTimeout.
func BoundedDistance(a, b string, maxDist int, deadline time.Time) (int, error) {
	if maxDist < 0 {
		maxDist = 0
	}
	over := maxDist + 1

	ra, rb := []rune(a), []rune(b)
	// Shorter string drives the rows; equal lengths are ordered so the
	// computation is identical for (a,b) and (b,a).
	if len(ra) > len(rb) || (len(ra) == len(rb) && a > b) {
		ra, rb = rb, ra
	}
	n, m := len(ra), len(rb)
	if m-n > maxDist {
		return over, nil
	}
	if n == 0 {
		return m, nil
	}

	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := range prev {
		if j <= maxDist {
			prev[j] = j
		} else {
			prev[j] = over
		}
	}

	for i := 1; i <= n; i++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return over, fmt.Errorf("bounded distance at row %d/%d: %w", i, n, types.ErrTimeout)
		}
		lo := max(1, i-maxDist)
		hi := min(m, i+maxDist)

		rowMin := over
		if lo == 1 {
			cur[0] = min(i, over)
			rowMin = cur[0]
		} else {
			cur[lo-1] = over
		}
		for j := lo; j <= hi; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			v := prev[j-1] + cost
			if d := prev[j] + 1; d < v {
				v = d
			}
			if d := cur[j-1] + 1; d < v {
				v = d
			}
			if v > over {
				v = over
			}
			cur[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if hi < m {
			cur[hi+1] = over
		}
		if rowMin > maxDist {
			return over, nil
		}
		prev, cur = cur, prev
	}

	if d := prev[m]; d <= maxDist {
		return d, nil
	}
	return over, nil
}

const simEpsilon = 1e-9

// Budget is the largest distance that still reaches threshold similarity for
// strings whose longer side has n runes.
func Budget(n int, threshold float64) int {
	if n <= 0 {
		return 0
	}
	if threshold >= 1 {
		return 0
	}
	if threshold <= 0 {
		return n
	}
	return int((1-threshold)*float64(n) + simEpsilon)
}

// Similarity converts a distance into 1 - d/max(len(a), len(b)).
func Similarity(d, lenA, lenB int) float64 {
	n := max(lenA, lenB)
	if n == 0 {
		return 1
	}
	s := 1 - float64(d)/float64(n)
	if s < 0 {
		return 0
	}
	return s
}
