package vesting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Validate(t *testing.T) {
	valid := Schedule{
		IssuedAt:    1000,
		DurationSec: 60,
		CliffSec:    0,
		IntervalSec: 1,
		AmountTotal: 100,
	}
	require.NoError(t, valid.Validate())

	for _, tc := range []struct {
		name     string
		mutate   func(*Schedule)
		expected error
	}{
		{"zero amount", func(s *Schedule) { s.AmountTotal = 0 }, ErrInvalidAmount},
		{"zero duration", func(s *Schedule) { s.DurationSec = 0 }, ErrInvalidDuration},
		{"zero interval", func(s *Schedule) { s.IntervalSec = 0 }, ErrInvalidInterval},
		{"interval longer than duration", func(s *Schedule) { s.IntervalSec = 61 }, ErrInvalidInterval},
		{"cliff equal to duration", func(s *Schedule) { s.CliffSec = 60 }, ErrInvalidCliff},
		{"cliff past duration", func(s *Schedule) { s.CliffSec = 90 }, ErrInvalidCliff},
	} {
		schedule := valid
		tc.mutate(&schedule)
		assert.Equal(t, tc.expected, schedule.Validate(), tc.name)
	}
}

func TestSchedule_FullyVestedAtEnd(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    1000,
		DurationSec: 1,
		IntervalSec: 1,
		AmountTotal: 100,
	}

	assert.EqualValues(t, 0, schedule.VestedAmount(1000))
	assert.EqualValues(t, 100, schedule.VestedAmount(1001))
	assert.EqualValues(t, 100, schedule.VestedAmount(5000))
}

func TestSchedule_LinearVesting(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    1000,
		DurationSec: 60,
		IntervalSec: 1,
		AmountTotal: 100,
	}

	// 100 tokens over 60 one-second intervals is 1 token per interval,
	// with the remaining 40 absorbed into the final tranche.
	assert.EqualValues(t, 0, schedule.VestedAmount(1000))
	assert.EqualValues(t, 5, schedule.VestedAmount(1005))
	assert.EqualValues(t, 59, schedule.VestedAmount(1059))
	assert.EqualValues(t, 100, schedule.VestedAmount(1060))
}

func TestSchedule_CliffGatesEverything(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    0,
		DurationSec: 4 * 365 * IntervalDay,
		CliffSec:    365 * IntervalDay,
		IntervalSec: IntervalMonth,
		AmountTotal: 480_000,
	}

	// Nothing before the cliff, even though intervals have completed.
	assert.EqualValues(t, 0, schedule.VestedAmount(schedule.CliffAt()-1))

	// Immediately past the cliff, all completed intervals pay at once.
	vestedAtCliff := schedule.VestedAmount(schedule.CliffAt())
	assert.True(t, vestedAtCliff > 0)

	intervals := schedule.DurationSec / schedule.IntervalSec
	perInterval := schedule.AmountTotal / intervals
	completed := uint64(schedule.CliffAt()-schedule.IssuedAt) / schedule.IntervalSec
	assert.EqualValues(t, completed*perInterval, vestedAtCliff)
}

func TestSchedule_DustAbsorbedAtEnd(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    0,
		DurationSec: 7,
		IntervalSec: 2,
		AmountTotal: 10,
	}

	// floor(7/2) = 3 intervals of floor(10/3) = 3 tokens each.
	assert.EqualValues(t, 3, schedule.VestedAmount(2))
	assert.EqualValues(t, 6, schedule.VestedAmount(4))
	assert.EqualValues(t, 9, schedule.VestedAmount(6))

	// The final second releases the remaining dust.
	assert.EqualValues(t, 10, schedule.VestedAmount(7))
}

func TestSchedule_Monotonic(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    500,
		DurationSec: 1000,
		CliffSec:    100,
		IntervalSec: 7,
		AmountTotal: 12345,
	}

	var prev uint64
	for now := schedule.IssuedAt - 10; now <= schedule.EndsAt()+10; now++ {
		vested := schedule.VestedAmount(now)
		require.True(t, vested >= prev, "vested amount decreased at %d", now)
		require.True(t, vested <= schedule.AmountTotal)
		prev = vested
	}
	assert.EqualValues(t, schedule.AmountTotal, prev)
}

func TestSchedule_ClaimableAmount(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    1000,
		DurationSec: 60,
		IntervalSec: 1,
		AmountTotal: 100,
	}

	assert.EqualValues(t, 5, schedule.ClaimableAmount(1005, 0))
	assert.EqualValues(t, 2, schedule.ClaimableAmount(1005, 3))
	assert.EqualValues(t, 0, schedule.ClaimableAmount(1005, 5))

	// Never negative, even if more was unlocked than currently computes
	// as vested.
	assert.EqualValues(t, 0, schedule.ClaimableAmount(1005, 50))
}

func TestSchedule_BeforeIssuance(t *testing.T) {
	schedule := Schedule{
		IssuedAt:    1000,
		DurationSec: 60,
		IntervalSec: 1,
		AmountTotal: 100,
	}
	assert.EqualValues(t, 0, schedule.VestedAmount(999))
}
