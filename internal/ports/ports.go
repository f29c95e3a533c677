package ports

import (
	"context"
	"time"

	"github.com/forPelevin/takeclean/internal/types"
)

type AudioTool interface {
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
	RenderKeep(ctx context.Context, in string, keep []types.Interval, out string) error
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

type SilenceDetector interface {
	DetectSilence(ctx context.Context, wavPath string) ([]types.SilenceRange, error)
}
