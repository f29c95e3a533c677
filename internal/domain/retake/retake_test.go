package retake

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/takeclean/internal/types"
)

func seg(start, end float64) types.CandidateSegment {
	return types.CandidateSegment{Start: start, End: end}
}

func ends(segs []types.CandidateSegment) []float64 {
	out := make([]float64, len(segs))
	for i, s := range segs {
		out[i] = s.End
	}
	return out
}

func TestSequencer_StrictDropsRegression(t *testing.T) {
	in := []types.CandidateSegment{seg(0, 2), seg(1, 1.5), seg(3, 5)}
	kept, dropped := Sequencer{Mode: ModeStrict, Epsilon: DefaultEpsilon}.Run(in)

	require.Equal(t, []float64{2, 5}, ends(kept))
	require.Equal(t, []float64{1.5}, ends(dropped))
	require.Equal(t, types.ReasonPreTake, dropped[0].DropReason)
	require.False(t, dropped[0].Kept)
	for _, k := range kept {
		require.True(t, k.Kept)
	}
	require.Empty(t, in[1].DropReason, "input must not be modified")
}

func TestSequencer_Modes(t *testing.T) {
	in := []types.CandidateSegment{
		seg(0, 2),
		seg(1, 1.5), // regression
		seg(1.8, 3), // partial overlap
		seg(3.01, 4),
		seg(5, 5), // degenerate
		seg(3.5, 4.5),
	}

	t.Run("off", func(t *testing.T) {
		kept, dropped := Sequencer{Mode: ModeOff, Epsilon: DefaultEpsilon}.Run(in)
		require.Equal(t, []float64{2, 1.5, 3, 4, 4.5}, ends(kept))
		require.Len(t, dropped, 1)
		require.Equal(t, types.ReasonInvalid, dropped[0].DropReason)
	})

	t.Run("soft", func(t *testing.T) {
		kept, dropped := Sequencer{Mode: ModeSoft, Epsilon: DefaultEpsilon}.Run(in)
		require.Equal(t, []float64{2, 1.5, 3, 4, 4.5}, ends(kept))
		require.True(t, kept[1].PreTake)
		require.Equal(t, 2.0, kept[2].Start, "partial overlap is clamped to the high-water mark")
		require.Equal(t, 4.0, kept[4].Start)
		require.Len(t, dropped, 1)
	})

	t.Run("strict", func(t *testing.T) {
		kept, dropped := Sequencer{Mode: ModeStrict, Epsilon: DefaultEpsilon}.Run(in)
		require.Equal(t, []float64{2, 4}, ends(kept))
		require.Equal(t, []string{types.ReasonPreTake, types.ReasonPreTake, types.ReasonInvalid, types.ReasonPreTake},
			[]string{dropped[0].DropReason, dropped[1].DropReason, dropped[2].DropReason, dropped[3].DropReason})
	})
}

func TestSequencer_SoftClampCollapseDrops(t *testing.T) {
	in := []types.CandidateSegment{seg(0, 2), seg(1, 2.01)}
	kept, dropped := Sequencer{Mode: ModeSoft, Epsilon: 0}.Run(in)
	require.Len(t, kept, 2)
	require.Equal(t, 2.0, kept[1].Start)

	in = []types.CandidateSegment{seg(0, 2), seg(1, 2)}
	kept, dropped = Sequencer{Mode: ModeSoft, Epsilon: 0}.Run(in)
	require.Len(t, kept, 1)
	require.Equal(t, types.ReasonPreTake, dropped[0].DropReason)
}

func TestSequencer_InvalidAlwaysDropped(t *testing.T) {
	for _, m := range []Mode{ModeOff, ModeSoft, ModeStrict} {
		kept, dropped := Sequencer{Mode: m}.Run([]types.CandidateSegment{
			seg(2, 1), seg(math.NaN(), 1), seg(0, math.Inf(1)), seg(0, 1),
		})
		require.Len(t, kept, 1, m.String())
		require.Len(t, dropped, 3, m.String())
		for _, d := range dropped {
			require.Equal(t, types.ReasonInvalid, d.DropReason)
		}
	}
}

func TestSequencer_StrictMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const eps = DefaultEpsilon
	for i := 0; i < 200; i++ {
		var in []types.CandidateSegment
		for k := 0; k < 20; k++ {
			start := rng.Float64() * 30
			in = append(in, seg(start, start+rng.Float64()*4-0.5))
		}
		kept, dropped := Sequencer{Mode: ModeStrict, Epsilon: eps}.Run(in)
		require.Equal(t, len(in), len(kept)+len(dropped))
		for k := 1; k < len(kept); k++ {
			require.GreaterOrEqual(t, kept[k].End+eps, kept[k-1].End)
			require.GreaterOrEqual(t, kept[k].Start+eps, kept[k-1].End, "overlap beyond epsilon")
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeStrict, ModeSoft, ModeOff} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseMode("lenient")
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}
