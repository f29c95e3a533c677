package subtitles

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/forPelevin/takeclean/internal/domain/interval"
	"github.com/forPelevin/takeclean/internal/types"
)

// charBudget is the widest subtitle line in runes.
const charBudget = 42

// RenderASS writes one event per kept sentence, timed on the cleaned timeline
// described by keep. Sentences that end up fully inside cuts are omitted.
func RenderASS(kept []types.CandidateSegment, keep []types.Interval) string {
	segs := slices.Clone(kept)
	slices.SortStableFunc(segs, func(a, b types.CandidateSegment) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range segs {
		if !s.Kept {
			continue
		}
		start, _ := interval.MapTime(keep, s.Start)
		end, _ := interval.MapTime(keep, s.End)
		if end <= start {
			continue
		}
		text := strings.Join(wrap(sanitizeASS(s.Text), charBudget), `\N`)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Clean,,0,0,0,,%s\n", assTime(dur(start)), assTime(dur(end)), text)
	}
	return b.String()
}

// wrap packs words into lines of at most budget runes. Words longer than the
// budget (unspaced scripts) are split by rune count.
func wrap(text string, budget int) []string {
	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, w := range strings.Fields(text) {
		rs := []rune(w)
		for len(rs) > budget {
			flush()
			out = append(out, string(rs[:budget]))
			rs = rs[budget:]
		}
		nextLen := curLen + len(rs)
		if curLen > 0 {
			nextLen++
		}
		if nextLen > budget {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(string(rs))
		curLen += len(rs)
	}
	flush()
	return out
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Clean, Inter, 56, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,3,1,2, 80,80,60,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
