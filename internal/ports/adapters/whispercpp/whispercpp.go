package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/takeclean/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, language: "auto"}
}

// WithLanguage sets the spoken language hint ("auto" lets whisper detect it).
func (a *Adapter) WithLanguage(lang string) *Adapter {
	if lang != "" {
		a.language = lang
	}
	return a
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return parseJSON(jb)
}

type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// offsets are milliseconds.
type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// parseJSON reads whisper.cpp full JSON output. Tokens are glued into words on
// leading spaces; special tokens ("[_BEG_]", "[_TT_..]") are dropped. A
// document already in transcript form ({"segments": ...}) is accepted as-is.
func parseJSON(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper json: %w", err)
	}
	if len(out.Transcription) == 0 {
		var tr types.Transcript
		if err := json.Unmarshal(b, &tr); err != nil {
			return types.Transcript{}, fmt.Errorf("parse whisper json: %w", err)
		}
		for i := range tr.Segments {
			tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
			for j := range tr.Segments[i].Words {
				tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
			}
		}
		return tr, nil
	}

	var tr types.Transcript
	for _, s := range out.Transcription {
		seg := types.Segment{
			Start: ms(s.Offsets.From),
			End:   ms(s.Offsets.To),
			Text:  strings.TrimSpace(s.Text),
		}
		var cur *types.Word
		for _, tok := range s.Tokens {
			if strings.HasPrefix(tok.Text, "[_") || tok.Text == "" {
				continue
			}
			if cur == nil || strings.HasPrefix(tok.Text, " ") {
				seg.Words = append(seg.Words, types.Word{Start: ms(tok.Offsets.From)})
				cur = &seg.Words[len(seg.Words)-1]
			}
			cur.Word += tok.Text
			cur.End = ms(tok.Offsets.To)
		}
		words := seg.Words[:0]
		for _, w := range seg.Words {
			w.Word = strings.TrimSpace(w.Word)
			if w.Word != "" {
				words = append(words, w)
			}
		}
		seg.Words = words
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}

func ms(v int64) float64 { return float64(v) / 1000 }
