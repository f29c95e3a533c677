package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/domain/edl"
	"github.com/forPelevin/takeclean/internal/logging"
	"github.com/forPelevin/takeclean/internal/ports"
	"github.com/forPelevin/takeclean/internal/ports/adapters/energy"
	"github.com/forPelevin/takeclean/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/takeclean/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/takeclean/internal/usecase"
)

type Config struct {
	Input      string
	ScriptPath string
	OutDir     string
	Render     bool
	Logger     *slog.Logger

	// CacheDir is the base directory for local artifacts (audio, transcripts, etc.).
	// If empty, defaults to ".cache".
	CacheDir string

	Core    config.Config
	Silence config.Silence
	Tools   config.Tools
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.ScriptPath != "" {
		if _, err := os.Stat(c.ScriptPath); err != nil {
			return fmt.Errorf("stat script: %w", err)
		}
	}
	if c.Tools.WhisperModel == "" {
		return fmt.Errorf("whisper model path is required")
	}
	switch c.Silence.Detector {
	case config.DetectorEnergy, config.DetectorFFmpeg:
	default:
		return fmt.Errorf("unknown silence detector %q", c.Silence.Detector)
	}
	return c.Core.Validate()
}

// Result points at the artifacts of one run.
type Result struct {
	RunID  string
	RunDir string
	EDL    string
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	log = log.With("component", "pipeline")

	var script string
	if cfg.ScriptPath != "" {
		b, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return Result{}, fmt.Errorf("read script: %w", err)
		}
		script = string(b)
	}

	// adapters
	a := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe).WithSilence(cfg.Silence.NoiseDB, cfg.Silence.MinDuration)
	asr := whispercpp.New(cfg.Tools.WhisperBin, cfg.Tools.WhisperModel).WithLanguage(cfg.Tools.Language)
	var detector ports.SilenceDetector = energy.New(cfg.Silence.NoiseDB, cfg.Silence.MinDuration)
	if cfg.Silence.Detector == config.DetectorFFmpeg {
		detector = a
	}

	uc := usecase.New(usecase.Deps{
		Audio:   a,
		ASR:     asr,
		Silence: detector,
		Logger:  log,
	})

	jobID := hash(cfg.Input)
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	log.Info("preparing workspace", "cache", cacheDir)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Result{}, err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	now := time.Now().UTC()
	runOutDir := buildRunOutDir(outDir, cfg.Input, now)
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return Result{}, err
	}
	stem := stemOf(cfg.Input)
	runID := uuid.NewString()
	log.Info("output run dir", "dir", runOutDir, "run_id", runID, "script", script != "")

	res, err := uc.Run(ctx, usecase.Input{
		Source:   cfg.Input,
		Script:   script,
		Core:     cfg.Core,
		CacheDir: cacheDir,
		OutDir:   runOutDir,
		Stem:     stem,
		Render:   cfg.Render,
	})
	if err != nil {
		return Result{}, err
	}

	// inputs of the decision, so `takeclean plan` can replay it
	if err := writeJSON(filepath.Join(runOutDir, stem+".transcript.json"), res.Transcript); err != nil {
		return Result{}, err
	}
	if err := writeJSON(filepath.Join(runOutDir, stem+".silences.json"), res.Silences); err != nil {
		return Result{}, err
	}

	doc := res.EDL
	doc.RunID = runID
	doc.Stem = stem
	doc.Source = cfg.Input
	edlPath := filepath.Join(runOutDir, stem+".edl.json")
	f, err := os.Create(edlPath)
	if err != nil {
		return Result{}, err
	}
	if err := edl.Encode(f, doc); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("write edl: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}
	log.Info("edl written",
		"path", edlPath,
		"keep", doc.Stats.KeepCount,
		"kept_s", doc.Stats.KeptSeconds,
		"cut_s", doc.Stats.CutSeconds,
		"retakes_dropped", doc.Stats.RetakesDropped,
	)
	if doc.Stats.MatchTimeouts > 0 {
		log.Warn("comparisons timed out", "count", doc.Stats.MatchTimeouts)
	}
	return Result{RunID: runID, RunDir: runOutDir, EDL: edlPath}, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, b, 0o644)
}

func stemOf(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	return name
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", stemOf(input), ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.AudioTool = (*ffmpeg.Adapter)(nil)
var _ ports.SilenceDetector = (*ffmpeg.Adapter)(nil)
var _ ports.SilenceDetector = (*energy.Detector)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
