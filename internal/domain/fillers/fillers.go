package fillers

import (
	"regexp"

	"github.com/forPelevin/takeclean/internal/domain/align"
)

var (
	// reHesitation matches stretched hesitation sounds: um, ummm, uh, er, erm, ah, hmm, mm.
	reHesitation = regexp.MustCompile(`^(?:u+m+|u+h+|e+r+m*|a+h+|h+m+|m{2,})$`)

	base = set("嗯", "呃", "额", "唔")

	// discourse fillers are real words too, so they are only cut in strict mode.
	discourse = set("like", "so", "well", "啊", "那个", "这个", "就是", "然后")
)

type Detector struct {
	Strict bool
}

// IsFiller reports whether a comparable-form token is a filler.
func (d Detector) IsFiller(key string) bool {
	if key == "" {
		return false
	}
	if base[key] || reHesitation.MatchString(key) {
		return true
	}
	return d.Strict && discourse[key]
}

// Find returns the filler words among the words of one kept segment. A
// segment made of a single word is never emptied.
func (d Detector) Find(words []align.Word) []align.Word {
	if len(words) < 2 {
		return nil
	}
	var out []align.Word
	for _, w := range words {
		if d.IsFiller(w.Key) {
			out = append(out, w)
		}
	}
	if len(out) == len(words) {
		return nil
	}
	return out
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
