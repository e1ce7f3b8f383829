package spur

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func newTestGrantAccount(t *testing.T) *GrantAccount {
	return &GrantAccount{
		Sender:        newTestKey(t),
		Recipient:     newTestKey(t),
		Authority:     newTestKey(t),
		AuthorityBump: 253,
		Mint:          newTestKey(t),

		AmountTotal:     1_000_000,
		IssuedAt:        1640995200,
		DurationSec:     4 * 365 * 86400,
		CliffSec:        365 * 86400,
		VestIntervalSec: 2592000,

		EscrowTokenAccount: newTestKey(t),
		LastUnlockAt:       1640995200,
		AmountUnlocked:     250_000,
		Revoked:            false,
	}
}

func TestGrantAccount_RoundTrip(t *testing.T) {
	obj := newTestGrantAccount(t)

	data := obj.Marshal()
	require.Len(t, data, GrantAccountSize)

	var decoded GrantAccount
	require.NoError(t, decoded.Unmarshal(data))

	assert.EqualValues(t, obj.Sender, decoded.Sender)
	assert.EqualValues(t, obj.Recipient, decoded.Recipient)
	assert.EqualValues(t, obj.Authority, decoded.Authority)
	assert.Equal(t, obj.AuthorityBump, decoded.AuthorityBump)
	assert.EqualValues(t, obj.Mint, decoded.Mint)
	assert.Nil(t, decoded.OptionMarket)
	assert.Equal(t, obj.AmountTotal, decoded.AmountTotal)
	assert.Equal(t, obj.IssuedAt, decoded.IssuedAt)
	assert.Equal(t, obj.DurationSec, decoded.DurationSec)
	assert.Equal(t, obj.CliffSec, decoded.CliffSec)
	assert.Equal(t, obj.VestIntervalSec, decoded.VestIntervalSec)
	assert.EqualValues(t, obj.EscrowTokenAccount, decoded.EscrowTokenAccount)
	assert.Equal(t, obj.LastUnlockAt, decoded.LastUnlockAt)
	assert.Equal(t, obj.AmountUnlocked, decoded.AmountUnlocked)
	assert.Equal(t, obj.Revoked, decoded.Revoked)
}

func TestGrantAccount_RoundTripWithOptionMarket(t *testing.T) {
	obj := newTestGrantAccount(t)
	obj.OptionMarket = newTestKey(t)

	var decoded GrantAccount
	require.NoError(t, decoded.Unmarshal(obj.Marshal()))
	assert.EqualValues(t, obj.OptionMarket, decoded.OptionMarket)
}

func TestGrantAccount_FilterOffsets(t *testing.T) {
	obj := newTestGrantAccount(t)
	data := obj.Marshal()

	assert.True(t, bytes.Equal(obj.Sender, data[SenderOffset:SenderOffset+32]))
	assert.True(t, bytes.Equal(obj.Recipient, data[RecipientOffset:RecipientOffset+32]))
}

func TestGrantAccount_UnmarshalInvalid(t *testing.T) {
	obj := newTestGrantAccount(t)
	data := obj.Marshal()

	var decoded GrantAccount

	// Truncated
	assert.Error(t, decoded.Unmarshal(data[:GrantAccountSize-1]))

	// Wrong discriminator
	corrupted := make([]byte, len(data))
	copy(corrupted, data)
	corrupted[0]++
	assert.Error(t, decoded.Unmarshal(corrupted))
}

func TestGrantAccount_State(t *testing.T) {
	obj := newTestGrantAccount(t)
	assert.Equal(t, GrantStateActive, obj.State())

	obj.AmountUnlocked = obj.AmountTotal
	assert.Equal(t, GrantStateFullyUnlocked, obj.State())

	obj.Revoked = true
	assert.Equal(t, GrantStateRevoked, obj.State())
}

func TestGrantAccount_Clone(t *testing.T) {
	obj := newTestGrantAccount(t)
	clone := obj.Clone()

	assert.Equal(t, obj.ToString(), clone.ToString())

	clone.AmountUnlocked++
	assert.NotEqual(t, obj.AmountUnlocked, clone.AmountUnlocked)
}
