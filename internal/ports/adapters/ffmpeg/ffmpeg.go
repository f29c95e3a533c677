package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/takeclean/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string

	noiseDB    float64
	minSilence float64
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, noiseDB: -35, minSilence: 0.3}
}

// WithSilence sets the silencedetect noise floor (dBFS) and minimum duration (seconds).
func (a *Adapter) WithSilence(noiseDB, minDuration float64) *Adapter {
	a.noiseDB = noiseDB
	a.minSilence = minDuration
	return a
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// DetectSilence runs the silencedetect filter and parses its log output.
func (a *Adapter) DetectSilence(ctx context.Context, wavPath string) ([]types.SilenceRange, error) {
	filter := fmt.Sprintf("silencedetect=noise=%sdB:duration=%s",
		strconv.FormatFloat(a.noiseDB, 'f', -1, 64),
		strconv.FormatFloat(a.minSilence, 'f', -1, 64))
	cmd := exec.CommandContext(ctx, a.ffmpeg, "-hide_banner", "-nostats", "-i", wavPath, "-af", filter, "-f", "null", "-")
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg silencedetect: %w\n%s", err, string(b))
	}
	return parseSilenceOutput(string(b), a.minSilence), nil
}

var (
	reSilenceStart = regexp.MustCompile(`silence_start: (-?[0-9.]+)`)
	reSilenceEnd   = regexp.MustCompile(`silence_end: ([0-9.]+)`)
	reDuration     = regexp.MustCompile(`Duration: ([0-9]+):([0-9]{2}):([0-9]{2}(?:\.[0-9]+)?)`)
	reProgressTime = regexp.MustCompile(`time=([0-9]+):([0-9]{2}):([0-9]{2}(?:\.[0-9]+)?)`)
)

// parseSilenceOutput pairs silence_start/silence_end lines. A trailing start
// without an end runs to the end of the input.
func parseSilenceOutput(output string, minDuration float64) []types.SilenceRange {
	var (
		out      []types.SilenceRange
		start    float64
		hasOpen  bool
		duration float64
		progress float64
	)
	for _, line := range strings.Split(output, "\n") {
		if m := reSilenceStart.FindStringSubmatch(line); len(m) > 1 {
			if sec, err := strconv.ParseFloat(m[1], 64); err == nil {
				start, hasOpen = max(0, sec), true
			}
			continue
		}
		if m := reSilenceEnd.FindStringSubmatch(line); len(m) > 1 && hasOpen {
			if sec, err := strconv.ParseFloat(m[1], 64); err == nil {
				if sec-start >= minDuration && sec > start {
					out = append(out, types.SilenceRange{Start: start, End: sec})
				}
				hasOpen = false
			}
			continue
		}
		if m := reDuration.FindStringSubmatch(line); len(m) > 3 && duration == 0 {
			duration = clockSeconds(m[1:])
			continue
		}
		if m := reProgressTime.FindStringSubmatch(line); len(m) > 3 {
			progress = clockSeconds(m[1:])
		}
	}

	// A silence still open at EOF has no silence_end line; close it at the
	// input duration, or the last progress time when the header is missing.
	if end := max(duration, progress); hasOpen && end-start >= minDuration && end > start {
		out = append(out, types.SilenceRange{Start: start, End: end})
	}
	return out
}

// clockSeconds converts HH, MM and SS(.frac) fields to seconds.
func clockSeconds(fields []string) float64 {
	var total float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// RenderKeep concatenates the keep intervals of in into out.
func (a *Adapter) RenderKeep(ctx context.Context, in string, keep []types.Interval, out string) error {
	if len(keep) == 0 {
		return errors.New("ffmpeg render: nothing to keep")
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-filter_complex", keepFilter(keep),
		"-map", "[out]",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render keep: %w\n%s", err, string(b))
	}
	return nil
}

// keepFilter builds an atrim+concat graph with one branch per interval.
func keepFilter(keep []types.Interval) string {
	var b strings.Builder
	for i, k := range keep {
		fmt.Fprintf(&b, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", fmtSeconds(k.Start), fmtSeconds(k.End), i)
	}
	for i := range keep {
		fmt.Fprintf(&b, "[a%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]", len(keep))
	return b.String()
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
