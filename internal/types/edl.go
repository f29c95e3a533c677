package types

// CandidateSegment is one take of one sentence anchored to the source timeline.
type CandidateSegment struct {
	Sentence   int     `json:"sentence"`
	Take       int     `json:"take"`
	Text       string  `json:"text"`
	Start      float64 `json:"snap_t0"`
	End        float64 `json:"snap_t1"`
	Similarity float64 `json:"similarity,omitempty"`
	Kept       bool    `json:"kept"`
	PreTake    bool    `json:"pre_take,omitempty"`
	SnapLabel  string  `json:"snap,omitempty"`
	DropReason string  `json:"drop_reason,omitempty"`
}

// Drop returns a copy marked as not kept.
func (c CandidateSegment) Drop(reason string) CandidateSegment {
	c.Kept = false
	c.DropReason = reason
	return c
}

type ActionType string

const (
	ActionCut          ActionType = "cut"
	ActionTightenPause ActionType = "tighten_pause"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionCut, ActionTightenPause:
		return true
	}
	return false
}

// Reasons attached to cut actions and dropped segments.
const (
	ReasonFiller        = "filler"
	ReasonLongSilence   = "long_silence"
	ReasonRetake        = "retake"
	ReasonRetakePreTake = "retake_pre_take"
	ReasonPreTake       = "pre_take"
	ReasonInvalid       = "invalid"
	ReasonTooShort      = "too_short"
	ReasonFalseStart    = "false_start"
	ReasonUnscripted    = "unscripted"
	ReasonLeadIn        = "lead_in"
	ReasonTail          = "tail"
)

type CutAction struct {
	Type     ActionType `json:"type"`
	Start    float64    `json:"start"`
	End      float64    `json:"end"`
	TargetMS int        `json:"target_ms,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// Skip records an EDL action that was discarded as malformed.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type Stats struct {
	KeptSeconds    float64        `json:"kept_s"`
	CutSeconds     float64        `json:"cut_s"`
	KeepCount      int            `json:"keep_count"`
	ActionCounts   map[string]int `json:"action_counts"`
	RetakesDropped int            `json:"retakes_dropped"`
	MatchTimeouts  int            `json:"match_timeouts"`
}

// EDL is the terminal artifact handed to a renderer.
type EDL struct {
	Version   int                `json:"version"`
	RunID     string             `json:"run_id,omitempty"`
	Stem      string             `json:"stem,omitempty"`
	Source    string             `json:"source,omitempty"`
	Duration  float64            `json:"duration"`
	Actions   []CutAction        `json:"actions"`
	Keep      []Interval         `json:"keep"`
	Segments  []CandidateSegment `json:"segments,omitempty"`
	Skipped   []Skip             `json:"skipped,omitempty"`
	Unmatched []int              `json:"unmatched,omitempty"`
	Stats     Stats              `json:"stats"`
}
