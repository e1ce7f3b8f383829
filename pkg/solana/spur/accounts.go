package spur

import (
	"bytes"
	"crypto/ed25519"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
)

// GrantAccount is the on-chain record of a single grant: who funded it, who
// receives it, the vesting schedule, and the running unlock bookkeeping.
type GrantAccount struct {
	Sender        ed25519.PublicKey
	Recipient     ed25519.PublicKey
	Authority     ed25519.PublicKey
	AuthorityBump uint8
	Mint          ed25519.PublicKey
	OptionMarket  ed25519.PublicKey // optional; set when the grant escrows option tokens

	AmountTotal     uint64
	IssuedAt        int64
	DurationSec     uint64
	CliffSec        uint64
	VestIntervalSec uint64

	EscrowTokenAccount ed25519.PublicKey
	LastUnlockAt       int64
	AmountUnlocked     uint64
	Revoked            bool
}

const GrantAccountSize = (8 + // discriminator
	32 + // sender
	32 + // recipient
	32 + // authority
	1 + // authority_bump
	32 + // mint
	33 + // option_market (optional)
	8 + // amount_total
	8 + // issued_at
	8 + // duration_sec
	8 + // cliff_sec
	8 + // vest_interval_sec
	32 + // escrow_token_account
	8 + // last_unlock_at
	8 + // amount_unlocked
	1) // revoked

// Byte offsets backing getProgramAccounts memcmp filters. They are fixed
// because every preceding field (including optionals) has a fixed width.
const (
	SenderOffset    = 8
	RecipientOffset = 40
)

var grantAccountDiscriminator = []byte{149, 150, 40, 222, 69, 177, 178, 48}

// Clones a GrantAccount instance.
func (obj *GrantAccount) Clone() *GrantAccount {
	clone := *obj
	return &clone
}

func (obj *GrantAccount) ToString() string {
	var sender, recipient, authority, mint, optionMarket, escrow string

	if obj.Sender != nil {
		sender = base58.Encode(obj.Sender)
	}
	if obj.Recipient != nil {
		recipient = base58.Encode(obj.Recipient)
	}
	if obj.Authority != nil {
		authority = base58.Encode(obj.Authority)
	}
	if obj.Mint != nil {
		mint = base58.Encode(obj.Mint)
	}
	if obj.OptionMarket != nil {
		optionMarket = base58.Encode(obj.OptionMarket)
	}
	if obj.EscrowTokenAccount != nil {
		escrow = base58.Encode(obj.EscrowTokenAccount)
	}

	return "GrantAccount{" +
		"sender='" + sender + "'" +
		", recipient='" + recipient + "'" +
		", authority='" + authority + "'" +
		", authority_bump='" + strconv.Itoa(int(obj.AuthorityBump)) + "'" +
		", mint='" + mint + "'" +
		", option_market='" + optionMarket + "'" +
		", amount_total='" + strconv.FormatUint(obj.AmountTotal, 10) + "'" +
		", issued_at='" + time.Unix(obj.IssuedAt, 0).String() + "'" +
		", duration_sec='" + strconv.FormatUint(obj.DurationSec, 10) + "'" +
		", cliff_sec='" + strconv.FormatUint(obj.CliffSec, 10) + "'" +
		", vest_interval_sec='" + strconv.FormatUint(obj.VestIntervalSec, 10) + "'" +
		", escrow_token_account='" + escrow + "'" +
		", last_unlock_at='" + strconv.FormatInt(obj.LastUnlockAt, 10) + "'" +
		", amount_unlocked='" + strconv.FormatUint(obj.AmountUnlocked, 10) + "'" +
		", revoked='" + strconv.FormatBool(obj.Revoked) + "'" +
		"}"
}

// State reports the lifecycle state of the grant.
func (obj *GrantAccount) State() GrantState {
	if obj.Revoked {
		return GrantStateRevoked
	}
	if obj.AmountTotal > 0 && obj.AmountUnlocked >= obj.AmountTotal {
		return GrantStateFullyUnlocked
	}
	return GrantStateActive
}

// Serializes the GrantAccount into a buffer.
func (obj *GrantAccount) Marshal() []byte {
	data := make([]byte, GrantAccountSize)

	var offset int

	putDiscriminator(data, grantAccountDiscriminator, &offset)

	putKey(data, obj.Sender, &offset)
	putKey(data, obj.Recipient, &offset)
	putKey(data, obj.Authority, &offset)
	putUint8(data, obj.AuthorityBump, &offset)
	putKey(data, obj.Mint, &offset)
	putOptionalKey(data, obj.OptionMarket, &offset)
	putUint64(data, obj.AmountTotal, &offset)
	putInt64(data, obj.IssuedAt, &offset)
	putUint64(data, obj.DurationSec, &offset)
	putUint64(data, obj.CliffSec, &offset)
	putUint64(data, obj.VestIntervalSec, &offset)
	putKey(data, obj.EscrowTokenAccount, &offset)
	putInt64(data, obj.LastUnlockAt, &offset)
	putUint64(data, obj.AmountUnlocked, &offset)
	putBool(data, obj.Revoked, &offset)

	return data
}

// Deserializes the GrantAccount from the provided data buffer.
// Returns an error if the deserialize operation was unsuccessful.
func (obj *GrantAccount) Unmarshal(data []byte) error {
	if len(data) != GrantAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, grantAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Sender, &offset)
	getKey(data, &obj.Recipient, &offset)
	getKey(data, &obj.Authority, &offset)
	getUint8(data, &obj.AuthorityBump, &offset)
	getKey(data, &obj.Mint, &offset)
	getOptionalKey(data, &obj.OptionMarket, &offset)
	getUint64(data, &obj.AmountTotal, &offset)
	getInt64(data, &obj.IssuedAt, &offset)
	getUint64(data, &obj.DurationSec, &offset)
	getUint64(data, &obj.CliffSec, &offset)
	getUint64(data, &obj.VestIntervalSec, &offset)
	getKey(data, &obj.EscrowTokenAccount, &offset)
	getInt64(data, &obj.LastUnlockAt, &offset)
	getUint64(data, &obj.AmountUnlocked, &offset)
	getBool(data, &obj.Revoked, &offset)

	return nil
}
