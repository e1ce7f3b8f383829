package engine

import "github.com/pkg/errors"

var (
	ErrInvalidAccount    = errors.New("a required account is missing or invalid")
	ErrInvalidSchedule   = errors.New("invalid vesting schedule")
	ErrInvalidAmount     = errors.New("grant amount must be positive")
	ErrInsufficientFunds = errors.New("sender has insufficient funds for the grant")
	ErrNotSender         = errors.New("signer is not the grant sender")
	ErrNotRecipient      = errors.New("signer is not the grant recipient")
	ErrGrantRevoked      = errors.New("grant has been revoked")
	ErrNotOptionGrant    = errors.New("grant does not escrow option contracts")
	ErrNothingToExercise = errors.New("no unlocked option contracts to exercise")
)
