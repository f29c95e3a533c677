package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/domain/plan"
	"github.com/forPelevin/takeclean/internal/domain/subtitles"
	"github.com/forPelevin/takeclean/internal/logging"
	"github.com/forPelevin/takeclean/internal/ports"
	"github.com/forPelevin/takeclean/internal/types"
)

type Deps struct {
	Audio   ports.AudioTool
	ASR     ports.ASR
	Silence ports.SilenceDetector
	Logger  *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return Usecase{d: d}
}

type Input struct {
	Source string
	// Script text; empty runs script-less cleanup.
	Script   string
	Core     config.Config
	CacheDir string
	OutDir   string
	Stem     string
	Render   bool
}

type Result struct {
	EDL        types.EDL
	Subtitles  string // path of the written .ass, relative to OutDir
	Rendered   string // path of the cleaned audio, empty when not rendered
	Transcript types.Transcript
	Silences   []types.SilenceRange
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger.With("component", "usecase")

	wav := filepath.Join(in.CacheDir, "audio.wav")
	log.Info("extracting audio", "wav", wav)
	if err := u.d.Audio.ExtractAudioMono16k(ctx, in.Source, wav); err != nil {
		return Result{}, err
	}

	log.Info("transcribing")
	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, err
	}

	silences, err := u.d.Silence.DetectSilence(ctx, wav)
	if err != nil {
		return Result{}, err
	}
	log.Info("silences detected", "count", len(silences))

	dur, err := u.d.Audio.ProbeDuration(ctx, in.Source)
	if err != nil {
		return Result{}, err
	}

	doc, err := plan.Build(ctx, in.Core, plan.Input{
		Script:     in.Script,
		Transcript: tr,
		Silences:   silences,
		Duration:   dur.Seconds(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("plan: %w", err)
	}
	log.Info("plan built",
		"actions", len(doc.Actions),
		"keep", len(doc.Keep),
		"kept_s", doc.Stats.KeptSeconds,
		"skipped", len(doc.Skipped),
		"unmatched", len(doc.Unmatched),
	)

	res := Result{EDL: doc, Transcript: tr, Silences: silences}

	subsName := in.Stem + ".clean.ass"
	if err := writeFile(filepath.Join(in.OutDir, subsName), []byte(subtitles.RenderASS(doc.Segments, doc.Keep))); err != nil {
		return Result{}, err
	}
	res.Subtitles = subsName

	if in.Render {
		if len(doc.Keep) == 0 {
			log.Warn("nothing kept, skipping render")
			return res, nil
		}
		cleanName := in.Stem + ".clean.wav"
		log.Info("rendering", "out", cleanName)
		if err := u.d.Audio.RenderKeep(ctx, in.Source, doc.Keep, filepath.Join(in.OutDir, cleanName)); err != nil {
			return Result{}, err
		}
		res.Rendered = cleanName
	}
	return res, nil
}

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
