// Package segment splits normalized script text into ordered sentence spans.
//
// Strong punctuation (。！？!?；;…, runs of three or more dots, and a period
// closing a word) ends a sentence. Weak punctuation (commas, colons, 、 and
// em-dash runs) is a secondary break point used by ModeAllPunct and by the
// length pass of ModePunctLen. While KeepQuotes is set, weak marks inside an open bracket or
// quotation never break.
//
// Spans always cover the input contiguously: concatenating them reproduces
// every non-whitespace character exactly once, in order.
package segment

import (
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/takeclean/internal/types"
)

var pairs = map[rune]rune{
	'(': ')', '[': ']', '{': '}',
	'（': '）', '【': '】', '《': '》', '〈': '〉',
	'「': '」', '『': '』', '“': '”', '‘': '’',
	'〔': '〕', '［': '］', '｛': '｝',
}

var closers = func() map[rune]rune {
	m := make(map[rune]rune, len(pairs))
	for open, cl := range pairs {
		m[cl] = open
	}
	return m
}()

func isStrong(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '；', ';', '…', '｡':
		return true
	}
	return false
}

func isWeak(r rune) bool {
	switch r {
	case '，', ',', '、', '：', ':', '—', '､':
		return true
	}
	return false
}

type weakMark struct {
	pos    int // rune index just after the mark
	quoted bool
}

type scan struct {
	runes  []rune
	strong []int
	weak   []weakMark
}

// Segment splits text, which must already be normalized, into sentence spans.
func Segment(text string, opts Options) ([]types.TextSpan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	sc := scanText(text)
	n := len(sc.runes)

	var pieces [][2]int
	switch opts.Mode {
	case ModePunct:
		pieces = cutAt(n, sc.strong)
	case ModeAllPunct:
		breaks := append([]int(nil), sc.strong...)
		for _, w := range sc.weak {
			if opts.allowWeak(w) {
				breaks = append(breaks, w.pos)
			}
		}
		pieces = cutAt(n, sortUnique(breaks))
	case ModePunctLen:
		for _, p := range cutAt(n, sc.strong) {
			pieces = append(pieces, splitLong(sc, p, opts)...)
		}
	}

	offsets := byteOffsets(text, n)
	var spans []types.TextSpan
	for _, p := range pieces {
		a, b := trim(sc.runes, p[0], p[1])
		if a >= b {
			continue
		}
		spans = append(spans, types.TextSpan{Start: offsets[a], End: offsets[b]})
	}
	return mergeShort(text, spans, opts.MinLen), nil
}

func (o Options) allowWeak(w weakMark) bool {
	if !o.WeakPunct {
		return false
	}
	return !(o.KeepQuotes && w.quoted)
}

func scanText(text string) scan {
	rs := []rune(text)
	sc := scan{runes: rs}
	var stack []rune

	pop := func(open rune) {
		for k := len(stack) - 1; k >= 0; k-- {
			if stack[k] == open {
				stack = stack[:k]
				return
			}
		}
	}
	closeQuote := func(r rune) bool {
		if r == '"' {
			if len(stack) > 0 && stack[len(stack)-1] == '"' {
				stack = stack[:len(stack)-1]
				return true
			}
			return false
		}
		if open, ok := closers[r]; ok {
			pop(open)
			return true
		}
		return false
	}

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '"':
			if !closeQuote(r) {
				stack = append(stack, r)
			}
			i++
		case pairs[r] != 0:
			stack = append(stack, r)
			i++
		case closers[r] != 0:
			closeQuote(r)
			i++
		case isStrong(r) || dotRun(rs, i) >= 3 || periodEnd(rs, i):
			j := i
			for j < len(rs) && (isStrong(rs[j]) || rs[j] == '.') {
				j++
			}
			// Closing marks right after sentence-final punctuation belong to
			// the sentence they close.
			for j < len(rs) && (closers[rs[j]] != 0 || (rs[j] == '"' && len(stack) > 0 && stack[len(stack)-1] == '"')) {
				closeQuote(rs[j])
				j++
			}
			sc.strong = append(sc.strong, j)
			i = j
		case isWeak(r) && !betweenDigits(rs, i):
			j := i + 1
			for j < len(rs) && rs[j] == r && r == '—' {
				j++
			}
			sc.weak = append(sc.weak, weakMark{pos: j, quoted: len(stack) > 0})
			i = j
		default:
			i++
		}
	}
	return sc
}

func dotRun(rs []rune, i int) int {
	n := 0
	for i+n < len(rs) && rs[i+n] == '.' {
		n++
	}
	return n
}

// periodEnd reports a single '.' closing a word and followed by whitespace or
// the end of text, as in Latin-script prose.
func periodEnd(rs []rune, i int) bool {
	if rs[i] != '.' || i == 0 || !unicode.IsLetter(rs[i-1]) {
		return false
	}
	return i+1 == len(rs) || unicode.IsSpace(rs[i+1]) || closers[rs[i+1]] != 0 || rs[i+1] == '"'
}

// betweenDigits keeps "3,000" and "10:30" intact.
func betweenDigits(rs []rune, i int) bool {
	if rs[i] != ',' && rs[i] != ':' {
		return false
	}
	return i > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1])
}

func cutAt(n int, breaks []int) [][2]int {
	var out [][2]int
	start := 0
	for _, b := range breaks {
		if b <= start || b > n {
			continue
		}
		out = append(out, [2]int{start, b})
		start = b
	}
	if start < n {
		out = append(out, [2]int{start, n})
	}
	return out
}

// splitLong re-splits a strong-punctuation piece that exceeds MaxLen, first at
// weak marks nearest the limit, then by force once HardMax is exceeded.
func splitLong(sc scan, p [2]int, opts Options) [][2]int {
	var out [][2]int
	a, b := p[0], p[1]
	for a < b {
		for a < b && unicode.IsSpace(sc.runes[a]) {
			a++
		}
		if a >= b {
			break
		}
		rem := b - a
		if rem <= opts.MaxLen {
			out = append(out, [2]int{a, b})
			break
		}
		limit := a + opts.MaxLen
		hard := a + opts.HardMax

		cut := -1
		for _, w := range sc.weak {
			if w.pos <= a || w.pos >= b || !opts.allowWeak(w) {
				continue
			}
			if w.pos-a < opts.MinLen {
				continue
			}
			if w.pos <= limit {
				cut = w.pos
				continue
			}
			if cut < 0 && w.pos <= hard {
				cut = w.pos
			}
			break
		}
		if cut < 0 {
			if rem <= opts.HardMax {
				out = append(out, [2]int{a, b})
				break
			}
			cut = forcedBreak(sc.runes, a, hard, opts)
		}
		out = append(out, [2]int{a, cut})
		a = cut
	}
	return out
}

// forcedBreak scans backward from the hard limit for whitespace within
// HardMax-MaxLen runes (at least one) and otherwise cuts exactly at the limit.
func forcedBreak(rs []rune, a, hard int, opts Options) int {
	window := max(1, opts.HardMax-opts.MaxLen)
	for q := hard - 1; q >= hard-window && q > a; q-- {
		if unicode.IsSpace(rs[q]) {
			return q
		}
	}
	return hard
}

func trim(rs []rune, a, b int) (int, int) {
	for a < b && unicode.IsSpace(rs[a]) {
		a++
	}
	for b > a && unicode.IsSpace(rs[b-1]) {
		b--
	}
	return a, b
}

// mergeShort folds spans shorter than minLen into the previous span. Short
// spans at the head are carried into the first span long enough to stand.
func mergeShort(text string, spans []types.TextSpan, minLen int) []types.TextSpan {
	out := make([]types.TextSpan, 0, len(spans))
	carry := -1
	for _, s := range spans {
		if carry >= 0 {
			s.Start = carry
			carry = -1
		}
		if utf8.RuneCountInString(text[s.Start:s.End]) >= minLen {
			out = append(out, s)
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].End = s.End
			continue
		}
		carry = s.Start
	}
	if carry >= 0 {
		out = append(out, types.TextSpan{Start: carry, End: lastEnd(spans)})
	}
	for i := range out {
		out[i].Text = text[out[i].Start:out[i].End]
	}
	return out
}

func lastEnd(spans []types.TextSpan) int {
	if len(spans) == 0 {
		return 0
	}
	return spans[len(spans)-1].End
}

func byteOffsets(text string, n int) []int {
	offs := make([]int, 0, n+1)
	for i := range text {
		offs = append(offs, i)
	}
	return append(offs, len(text))
}

func sortUnique(xs []int) []int {
	slices.Sort(xs)
	return slices.Compact(xs)
}
