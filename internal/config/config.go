// Package config holds the thresholds consumed by the cleanup core and the
// optional TOML file that layers tool paths and explicit overrides on top.
//
// A core Config is built once per run by New: defaults, then the
// aggressiveness dial, then explicit overrides, then validation. It is a plain
// value and is never mutated afterwards.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/forPelevin/takeclean/internal/domain/retake"
	"github.com/forPelevin/takeclean/internal/domain/segment"
	"github.com/forPelevin/takeclean/internal/types"
)

// Config is the immutable set of thresholds for one run. Durations are in
// seconds unless the field name says otherwise.
type Config struct {
	RetakeSimThreshold float64
	LongSilence        float64
	TightenTargetMS    int
	FillerStrict       bool
	MergeGap           float64
	SafetyPad          float64

	RetakeMode    retake.Mode
	RetakeEpsilon float64

	SnapRadius float64
	MinSegment float64

	// MatchTimeout bounds a single text comparison. Zero disables it.
	MatchTimeout time.Duration
	Lookback     float64
	Lookahead    float64

	Segment segment.Options
}

// MapAggr translates the 0-100 aggressiveness dial into thresholds. The level
// is clamped first; fields not driven by the dial pass through from base.
func MapAggr(level int, base Config) Config {
	level = min(max(level, 0), 100)
	l := float64(level) / 100

	base.RetakeSimThreshold = 0.82 + 0.11*l
	base.LongSilence = 1.2 - 0.7*l
	base.TightenTargetMS = int(math.Round(500 - 320*l))
	base.FillerStrict = level >= 60
	return base
}

// New builds a validated Config from the dial and explicit overrides.
// Overrides win over values derived from the dial.
func New(level int, o Overrides) (Config, error) {
	c := o.Apply(MapAggr(level, Default()))
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Sequencer returns the retake sequencer configured by c.
func (c Config) Sequencer() retake.Sequencer {
	return retake.Sequencer{Mode: c.RetakeMode, Epsilon: c.RetakeEpsilon}
}

func (c Config) Validate() error {
	if !(c.RetakeSimThreshold >= 0 && c.RetakeSimThreshold <= 1) {
		return invalid("retake_sim_threshold must be within [0,1], got %v", c.RetakeSimThreshold)
	}
	if !(c.LongSilence > 0) || math.IsInf(c.LongSilence, 0) {
		return invalid("long_silence_s must be > 0, got %v", c.LongSilence)
	}
	if c.TightenTargetMS < 0 {
		return invalid("tighten_target_ms must be >= 0, got %d", c.TightenTargetMS)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"merge_gap_s", c.MergeGap},
		{"safety_pad_s", c.SafetyPad},
		{"retake_epsilon_s", c.RetakeEpsilon},
		{"snap_radius_s", c.SnapRadius},
		{"min_segment_s", c.MinSegment},
		{"lookback_s", c.Lookback},
	} {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return invalid("%s must be a finite value >= 0, got %v", f.name, f.v)
		}
	}
	if !(c.Lookahead > 0) || math.IsInf(c.Lookahead, 0) {
		return invalid("lookahead_s must be > 0, got %v", c.Lookahead)
	}
	if c.MatchTimeout < 0 {
		return invalid("match_timeout must be >= 0, got %s", c.MatchTimeout)
	}
	if !c.RetakeMode.Valid() {
		return invalid("retake mode %d", int(c.RetakeMode))
	}
	return c.Segment.Validate()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{types.ErrInvalidConfig}, args...)...)
}
