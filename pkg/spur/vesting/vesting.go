package vesting

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidAmount   = errors.New("grant amount must be positive")
	ErrInvalidDuration = errors.New("vesting duration must be positive")
	ErrInvalidInterval = errors.New("vest interval must be positive and no longer than the duration")
	ErrInvalidCliff    = errors.New("cliff must be shorter than the duration")
)

// Schedule is the immutable vesting schedule fixed at grant creation.
// All amounts are in the token's base unit and all times are unix seconds.
type Schedule struct {
	IssuedAt    int64
	DurationSec uint64
	CliffSec    uint64
	IntervalSec uint64
	AmountTotal uint64
}

// Validate returns an error if the schedule could never vest correctly.
func (s Schedule) Validate() error {
	if s.AmountTotal == 0 {
		return ErrInvalidAmount
	}
	if s.DurationSec == 0 {
		return ErrInvalidDuration
	}
	if s.IntervalSec == 0 || s.IntervalSec > s.DurationSec {
		return ErrInvalidInterval
	}
	if s.CliffSec >= s.DurationSec {
		return ErrInvalidCliff
	}
	return nil
}

// EndsAt returns the time at which the full amount has vested.
func (s Schedule) EndsAt() int64 {
	return s.IssuedAt + int64(s.DurationSec)
}

// CliffAt returns the time before which nothing is claimable.
func (s Schedule) CliffAt() int64 {
	return s.IssuedAt + int64(s.CliffSec)
}

// VestedAmount returns the cumulative amount vested at the provided time.
//
// Vesting releases a fixed tranche per completed interval. Integer division
// leaves a remainder when the total doesn't divide evenly across intervals;
// that remainder is absorbed into the final tranche, so the schedule always
// pays out exactly AmountTotal by EndsAt.
func (s Schedule) VestedAmount(now int64) uint64 {
	if now >= s.EndsAt() {
		return s.AmountTotal
	}
	if now < s.CliffAt() || now < s.IssuedAt {
		return 0
	}

	intervals := s.DurationSec / s.IntervalSec
	perInterval := s.AmountTotal / intervals

	elapsed := uint64(now-s.IssuedAt) / s.IntervalSec
	return elapsed * perInterval
}

// ClaimableAmount returns the amount vested but not yet unlocked at the
// provided time.
func (s Schedule) ClaimableAmount(now int64, amountUnlocked uint64) uint64 {
	vested := s.VestedAmount(now)
	if vested <= amountUnlocked {
		return 0
	}
	return vested - amountUnlocked
}
