// Package energy finds silences in a PCM WAV file without shelling out.
package energy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/forPelevin/takeclean/internal/types"
)

// frameMS is the RMS analysis window.
const frameMS = 20

type Detector struct {
	NoiseDB     float64
	MinDuration float64
}

func New(noiseDB, minDuration float64) *Detector {
	return &Detector{NoiseDB: noiseDB, MinDuration: minDuration}
}

func (d *Detector) DetectSilence(ctx context.Context, wavPath string) ([]types.SilenceRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("energy: %s is not a valid wav file", wavPath)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("energy: decode %s: %w", wavPath, err)
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(dec.BitDepth)
	}
	return Detect(buf, d.NoiseDB, d.MinDuration)
}

// Detect groups consecutive frames whose RMS level is below noiseDB (dBFS)
// into silences lasting at least minDuration seconds.
func Detect(buf *audio.IntBuffer, noiseDB, minDuration float64) ([]types.SilenceRange, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("energy: missing pcm format")
	}
	rate, chans := buf.Format.SampleRate, buf.Format.NumChannels
	if rate <= 0 || chans <= 0 || buf.SourceBitDepth <= 0 {
		return nil, fmt.Errorf("energy: unsupported pcm format rate=%d channels=%d depth=%d", rate, chans, buf.SourceBitDepth)
	}
	fullScale := math.Exp2(float64(buf.SourceBitDepth - 1))
	// Below 50 Hz a window rounds down to zero samples; analyse per sample.
	frameLen := max(1, rate*frameMS/1000)
	totalFrames := len(buf.Data) / chans
	at := func(frame int) float64 { return float64(min(frame, totalFrames)) / float64(rate) }

	var (
		out     []types.SilenceRange
		runFrom = -1
	)
	closeRun := func(to int) {
		if runFrom < 0 {
			return
		}
		s := types.SilenceRange{Start: at(runFrom), End: at(to)}
		if s.End-s.Start >= minDuration {
			out = append(out, s)
		}
		runFrom = -1
	}
	for from := 0; from < totalFrames; from += frameLen {
		to := min(from+frameLen, totalFrames)
		if rmsDB(buf.Data[from*chans:to*chans], fullScale) < noiseDB {
			if runFrom < 0 {
				runFrom = from
			}
			continue
		}
		closeRun(from)
	}
	closeRun(totalFrames)
	return out, nil
}

func rmsDB(samples []int, fullScale float64) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / fullScale
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}
