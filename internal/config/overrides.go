package config

import (
	"time"

	"github.com/forPelevin/takeclean/internal/domain/retake"
	"github.com/forPelevin/takeclean/internal/domain/segment"
)

// Overrides carries explicitly set thresholds. Nil fields leave the value
// derived from defaults and the dial untouched.
type Overrides struct {
	RetakeSimThreshold *float64 `toml:"retake_sim_threshold"`
	LongSilence        *float64 `toml:"long_silence_s"`
	TightenTargetMS    *int     `toml:"tighten_target_ms"`
	FillerStrict       *bool    `toml:"filler_strict"`
	MergeGap           *float64 `toml:"merge_gap_s"`
	SafetyPad          *float64 `toml:"safety_pad_s"`

	RetakeMode    *retake.Mode `toml:"retake_mode"`
	RetakeEpsilon *float64     `toml:"retake_epsilon_s"`

	SnapRadius *float64 `toml:"snap_radius_s"`
	MinSegment *float64 `toml:"min_segment_s"`

	MatchTimeoutMS *int     `toml:"match_timeout_ms"`
	Lookback       *float64 `toml:"lookback_s"`
	Lookahead      *float64 `toml:"lookahead_s"`

	SegMode    *segment.Mode `toml:"seg_mode"`
	MinLen     *int          `toml:"min_len"`
	MaxLen     *int          `toml:"max_len"`
	HardMax    *int          `toml:"hard_max"`
	WeakPunct  *bool         `toml:"weak_punct"`
	KeepQuotes *bool         `toml:"keep_quotes"`
}

// Apply returns c with every non-nil override set.
func (o Overrides) Apply(c Config) Config {
	set(&c.RetakeSimThreshold, o.RetakeSimThreshold)
	set(&c.LongSilence, o.LongSilence)
	set(&c.TightenTargetMS, o.TightenTargetMS)
	set(&c.FillerStrict, o.FillerStrict)
	set(&c.MergeGap, o.MergeGap)
	set(&c.SafetyPad, o.SafetyPad)
	set(&c.RetakeMode, o.RetakeMode)
	set(&c.RetakeEpsilon, o.RetakeEpsilon)
	set(&c.SnapRadius, o.SnapRadius)
	set(&c.MinSegment, o.MinSegment)
	if o.MatchTimeoutMS != nil {
		c.MatchTimeout = time.Duration(*o.MatchTimeoutMS) * time.Millisecond
	}
	set(&c.Lookback, o.Lookback)
	set(&c.Lookahead, o.Lookahead)
	set(&c.Segment.Mode, o.SegMode)
	set(&c.Segment.MinLen, o.MinLen)
	set(&c.Segment.MaxLen, o.MaxLen)
	set(&c.Segment.HardMax, o.HardMax)
	set(&c.Segment.WeakPunct, o.WeakPunct)
	set(&c.Segment.KeepQuotes, o.KeepQuotes)
	return c
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
