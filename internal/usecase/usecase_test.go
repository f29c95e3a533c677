package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/types"
)

func TestRun_RenderToggle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		render bool
	}{
		{name: "disabled", render: false},
		{name: "enabled", render: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			audio := &fakeAudioTool{duration: 7 * time.Second}
			uc := New(Deps{
				Audio:   audio,
				ASR:     fakeASR{tr: testTranscript()},
				Silence: fakeSilence{},
			})

			res, err := uc.Run(context.Background(), Input{
				Source:   filepath.Join(tmp, "take.wav"),
				Script:   "Hello there world. Second line here.",
				Core:     testConfig(t),
				CacheDir: tmp,
				OutDir:   tmp,
				Stem:     "take",
				Render:   tc.render,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(res.EDL.Keep) != 2 {
				t.Fatalf("expected 2 keep intervals, got %+v", res.EDL.Keep)
			}
			if res.Subtitles != "take.clean.ass" {
				t.Fatalf("unexpected subtitles path: %q", res.Subtitles)
			}
			b, err := os.ReadFile(filepath.Join(tmp, res.Subtitles))
			if err != nil {
				t.Fatalf("read subtitles: %v", err)
			}
			if got := strings.Count(string(b), "Dialogue:"); got != 2 {
				t.Fatalf("expected 2 dialogue events, got %d:\n%s", got, b)
			}

			if !tc.render {
				if len(audio.rendered) != 0 {
					t.Fatalf("expected no render call, got %d", len(audio.rendered))
				}
				if res.Rendered != "" {
					t.Fatalf("expected empty render path, got %q", res.Rendered)
				}
				return
			}
			if len(audio.rendered) != 1 {
				t.Fatalf("expected 1 render call, got %d", len(audio.rendered))
			}
			if len(audio.rendered[0]) != len(res.EDL.Keep) {
				t.Fatalf("renderer got %+v, want keep %+v", audio.rendered[0], res.EDL.Keep)
			}
			if res.Rendered != "take.clean.wav" {
				t.Fatalf("unexpected render path: %q", res.Rendered)
			}
		})
	}
}

func TestRun_NothingKeptSkipsRender(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	audio := &fakeAudioTool{duration: 3 * time.Second}
	uc := New(Deps{
		Audio:   audio,
		ASR:     fakeASR{},
		Silence: fakeSilence{},
	})
	res, err := uc.Run(context.Background(), Input{
		Source:   filepath.Join(tmp, "take.wav"),
		Core:     testConfig(t),
		CacheDir: tmp,
		OutDir:   tmp,
		Stem:     "take",
		Render:   true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.EDL.Keep) != 0 || len(audio.rendered) != 0 {
		t.Fatalf("expected nothing kept and no render, got keep=%+v renders=%d", res.EDL.Keep, len(audio.rendered))
	}
}

func TestRun_CollaboratorErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cases := []struct {
		name string
		deps Deps
	}{
		{name: "extract", deps: Deps{Audio: &fakeAudioTool{extractErr: boom}, ASR: fakeASR{}, Silence: fakeSilence{}}},
		{name: "asr", deps: Deps{Audio: &fakeAudioTool{}, ASR: fakeASR{err: boom}, Silence: fakeSilence{}}},
		{name: "silence", deps: Deps{Audio: &fakeAudioTool{}, ASR: fakeASR{}, Silence: fakeSilence{err: boom}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tmp := t.TempDir()
			_, err := New(tc.deps).Run(context.Background(), Input{
				Source: "x", Core: testConfig(t), CacheDir: tmp, OutDir: tmp, Stem: "x",
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	cfg := testConfig(t)
	cfg.RetakeSimThreshold = 2
	_, err := New(Deps{Audio: &fakeAudioTool{}, ASR: fakeASR{}, Silence: fakeSilence{}}).Run(context.Background(), Input{
		Source: "x", Core: cfg, CacheDir: tmp, OutDir: tmp, Stem: "x",
	})
	if !errors.Is(err, types.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

type fakeAudioTool struct {
	duration   time.Duration
	extractErr error
	rendered   [][]types.Interval
}

func (f *fakeAudioTool) ExtractAudioMono16k(_ context.Context, _, _ string) error {
	return f.extractErr
}

func (f *fakeAudioTool) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	return f.duration, nil
}

func (f *fakeAudioTool) RenderKeep(_ context.Context, _ string, keep []types.Interval, _ string) error {
	f.rendered = append(f.rendered, keep)
	return nil
}

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeSilence struct {
	silences []types.SilenceRange
	err      error
}

func (f fakeSilence) DetectSilence(_ context.Context, _ string) ([]types.SilenceRange, error) {
	return f.silences, f.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.New(config.DefaultAggressiveness, config.Overrides{})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

// testTranscript is a fluffed first take, its retake, and a second sentence
// led by a filler. Words are 0.4s long and 0.5s apart.
func testTranscript() types.Transcript {
	var tr types.Transcript
	at := 0.0
	for _, phrase := range []string{"hello there wold", "hello there world", "um second line here"} {
		seg := types.Segment{Start: at, Text: phrase}
		for _, w := range strings.Fields(phrase) {
			seg.Words = append(seg.Words, types.Word{Start: at, End: at + 0.4, Word: w})
			at += 0.5
		}
		seg.End = at - 0.1
		tr.Segments = append(tr.Segments, seg)
		at += 0.5
	}
	return tr
}
