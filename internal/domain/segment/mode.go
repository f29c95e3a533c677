package segment

import (
	"fmt"
	"strings"

	"github.com/forPelevin/takeclean/internal/types"
)

// Mode selects where sentences may break.
type Mode int

const (
	// ModePunct breaks on strong (sentence-final) punctuation only.
	ModePunct Mode = iota + 1
	// ModeAllPunct also breaks on weak punctuation outside brackets.
	ModeAllPunct
	// ModePunctLen breaks on strong punctuation, then re-splits long spans.
	ModePunctLen
)

func (m Mode) String() string {
	switch m {
	case ModePunct:
		return "punct"
	case ModeAllPunct:
		return "all-punct"
	case ModePunctLen:
		return "punct+len"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	return m >= ModePunct && m <= ModePunctLen
}

// ParseMode accepts the names produced by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "punct":
		return ModePunct, nil
	case "all-punct":
		return ModeAllPunct, nil
	case "punct+len":
		return ModePunctLen, nil
	}
	return 0, fmt.Errorf("%w: unknown segmentation mode %q", types.ErrInvalidConfig, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: segmentation mode %d", types.ErrInvalidConfig, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Options bounds sentence length in runes.
type Options struct {
	Mode       Mode
	MinLen     int
	MaxLen     int
	HardMax    int
	WeakPunct  bool
	KeepQuotes bool
}

func DefaultOptions() Options {
	return Options{
		Mode:       ModePunctLen,
		MinLen:     6,
		MaxLen:     40,
		HardMax:    60,
		WeakPunct:  true,
		KeepQuotes: true,
	}
}

func (o Options) Validate() error {
	if !o.Mode.Valid() {
		return fmt.Errorf("%w: segmentation mode %d", types.ErrInvalidConfig, int(o.Mode))
	}
	if o.MinLen < 1 {
		return fmt.Errorf("%w: min_len must be >= 1, got %d", types.ErrInvalidConfig, o.MinLen)
	}
	if o.MaxLen < o.MinLen {
		return fmt.Errorf("%w: max_len (%d) must be >= min_len (%d)", types.ErrInvalidConfig, o.MaxLen, o.MinLen)
	}
	if o.HardMax < o.MaxLen {
		return fmt.Errorf("%w: hard_max (%d) must be >= max_len (%d)", types.ErrInvalidConfig, o.HardMax, o.MaxLen)
	}
	return nil
}
