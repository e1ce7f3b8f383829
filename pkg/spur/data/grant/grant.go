package grant

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/vesting"
)

var (
	ErrGrantNotFound   = errors.New("no records could be found")
	ErrInvalidGrant    = errors.New("invalid grant")
	ErrStaleGrantState = errors.New("grant state is stale")
)

// Record is the cached view of an on-chain grant account. All pubkey fields
// are base58-encoded. Slot tracks the last blockchain state observed, so
// updates never look backwards in chain history.
type Record struct {
	Id uint64

	Address string

	Authority     string
	AuthorityBump uint8

	Mint         string
	OptionMarket *string

	Sender    string
	Recipient string

	EscrowTokenAccount string

	AmountTotal     uint64
	IssuedAt        int64
	DurationSec     uint64
	CliffSec        uint64
	VestIntervalSec uint64

	LastUnlockAt   int64
	AmountUnlocked uint64
	Revoked        bool

	Slot uint64

	LastUpdatedAt time.Time
}

// IsOptionGrant reports whether the grant escrows option contract tokens
// rather than the mint itself.
func (r *Record) IsOptionGrant() bool {
	return r.OptionMarket != nil
}

func (r *Record) State() spur.GrantState {
	if r.Revoked {
		return spur.GrantStateRevoked
	}
	if r.AmountUnlocked >= r.AmountTotal {
		return spur.GrantStateFullyUnlocked
	}
	return spur.GrantStateActive
}

// Schedule returns the record's immutable vesting schedule.
func (r *Record) Schedule() vesting.Schedule {
	return vesting.Schedule{
		IssuedAt:    r.IssuedAt,
		DurationSec: r.DurationSec,
		CliffSec:    r.CliffSec,
		IntervalSec: r.VestIntervalSec,
		AmountTotal: r.AmountTotal,
	}
}

// UpdateFromProgramAccount updates the record's mutable state from a grant
// program account observed at the provided slot.
func (r *Record) UpdateFromProgramAccount(data *spur.GrantAccount, slot uint64) error {
	// Avoid updates looking backwards in blockchain history
	if slot <= r.Slot {
		return ErrStaleGrantState
	}

	r.LastUnlockAt = data.LastUnlockAt
	r.AmountUnlocked = data.AmountUnlocked
	r.Revoked = data.Revoked

	r.Slot = slot

	return nil
}

func (r *Record) Clone() *Record {
	var optionMarket *string
	if r.OptionMarket != nil {
		value := *r.OptionMarket
		optionMarket = &value
	}

	return &Record{
		Id: r.Id,

		Address: r.Address,

		Authority:     r.Authority,
		AuthorityBump: r.AuthorityBump,

		Mint:         r.Mint,
		OptionMarket: optionMarket,

		Sender:    r.Sender,
		Recipient: r.Recipient,

		EscrowTokenAccount: r.EscrowTokenAccount,

		AmountTotal:     r.AmountTotal,
		IssuedAt:        r.IssuedAt,
		DurationSec:     r.DurationSec,
		CliffSec:        r.CliffSec,
		VestIntervalSec: r.VestIntervalSec,

		LastUnlockAt:   r.LastUnlockAt,
		AmountUnlocked: r.AmountUnlocked,
		Revoked:        r.Revoked,

		Slot: r.Slot,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	var optionMarket *string
	if r.OptionMarket != nil {
		value := *r.OptionMarket
		optionMarket = &value
	}

	dst.Id = r.Id

	dst.Address = r.Address

	dst.Authority = r.Authority
	dst.AuthorityBump = r.AuthorityBump

	dst.Mint = r.Mint
	dst.OptionMarket = optionMarket

	dst.Sender = r.Sender
	dst.Recipient = r.Recipient

	dst.EscrowTokenAccount = r.EscrowTokenAccount

	dst.AmountTotal = r.AmountTotal
	dst.IssuedAt = r.IssuedAt
	dst.DurationSec = r.DurationSec
	dst.CliffSec = r.CliffSec
	dst.VestIntervalSec = r.VestIntervalSec

	dst.LastUnlockAt = r.LastUnlockAt
	dst.AmountUnlocked = r.AmountUnlocked
	dst.Revoked = r.Revoked

	dst.Slot = r.Slot

	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.Address) == 0 {
		return errors.New("grant address is required")
	}

	if len(r.Authority) == 0 {
		return errors.New("authority is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if r.OptionMarket != nil && len(*r.OptionMarket) == 0 {
		return errors.New("option market address is required when set")
	}

	if len(r.Sender) == 0 {
		return errors.New("sender is required")
	}

	if len(r.Recipient) == 0 {
		return errors.New("recipient is required")
	}

	if len(r.EscrowTokenAccount) == 0 {
		return errors.New("escrow token account is required")
	}

	if err := r.Schedule().Validate(); err != nil {
		return err
	}

	if r.AmountUnlocked > r.AmountTotal {
		return errors.New("unlocked amount exceeds grant total")
	}

	return nil
}

// NewRecordFromProgramAccount constructs a record from a grant program
// account observed at the provided slot.
func NewRecordFromProgramAccount(address string, data *spur.GrantAccount, slot uint64) *Record {
	var optionMarket *string
	if data.OptionMarket != nil {
		value := base58.Encode(data.OptionMarket)
		optionMarket = &value
	}

	return &Record{
		Address: address,

		Authority:     base58.Encode(data.Authority),
		AuthorityBump: data.AuthorityBump,

		Mint:         base58.Encode(data.Mint),
		OptionMarket: optionMarket,

		Sender:    base58.Encode(data.Sender),
		Recipient: base58.Encode(data.Recipient),

		EscrowTokenAccount: base58.Encode(data.EscrowTokenAccount),

		AmountTotal:     data.AmountTotal,
		IssuedAt:        data.IssuedAt,
		DurationSec:     data.DurationSec,
		CliffSec:        data.CliffSec,
		VestIntervalSec: data.VestIntervalSec,

		LastUnlockAt:   data.LastUnlockAt,
		AmountUnlocked: data.AmountUnlocked,
		Revoked:        data.Revoked,

		Slot: slot,
	}
}
