package config

import (
	"github.com/forPelevin/takeclean/internal/domain/retake"
	"github.com/forPelevin/takeclean/internal/domain/segment"
)

const (
	DefaultAggressiveness = 50

	defaultNoiseDB         = -35.0
	defaultMinSilenceS     = 0.3
	defaultSilenceDetector = DetectorEnergy
)

// Default returns the base thresholds before the dial is applied. The dial
// fields hold the level-50 values so Default alone is usable.
func Default() Config {
	return Config{
		RetakeSimThreshold: 0.875,
		LongSilence:        0.85,
		TightenTargetMS:    340,
		FillerStrict:       false,
		MergeGap:           0.005,
		SafetyPad:          0.05,

		RetakeMode:    retake.ModeStrict,
		RetakeEpsilon: retake.DefaultEpsilon,

		SnapRadius: 0.25,
		MinSegment: 0.15,

		MatchTimeout: 0,
		Lookback:     20,
		Lookahead:    90,

		Segment: segment.DefaultOptions(),
	}
}

// DefaultFile returns file-level defaults used when no config file exists.
func DefaultFile() File {
	return File{
		Aggressiveness: DefaultAggressiveness,
		Silence: Silence{
			Detector:    defaultSilenceDetector,
			NoiseDB:     defaultNoiseDB,
			MinDuration: defaultMinSilenceS,
		},
		Tools: Tools{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
			Language:     "auto",
		},
		Paths: Paths{
			CacheDir: ".cache",
			OutDir:   "out",
		},
		Logging: Logging{
			Format: "auto",
			Level:  "info",
		},
	}
}
