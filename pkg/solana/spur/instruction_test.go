package spur

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spur-grants/grant-server/pkg/solana"
)

func TestInitGrantInstruction_RoundTrip(t *testing.T) {
	args := &InitGrantInstructionArgs{
		AuthorityBump:   254,
		OptionMarket:    newTestKey(t),
		AmountTotal:     500_000,
		IssuedAt:        1640995200,
		DurationSec:     126144000,
		CliffSec:        31536000,
		VestIntervalSec: 2592000,
		Recipient:       newTestKey(t),
	}
	accounts := &InitGrantInstructionAccounts{
		GrantAccount:       newTestKey(t),
		Authority:          newTestKey(t),
		EscrowTokenAccount: newTestKey(t),
		SenderWallet:       newTestKey(t),
		Mint:               newTestKey(t),
	}

	ix := NewInitGrantInstruction(accounts, args)
	require.Len(t, ix.Data, InitGrantInstructionSize)
	assert.EqualValues(t, PROGRAM_ADDRESS, []byte(ix.Program))

	// Grant account and sender wallet must sign.
	assert.True(t, ix.Accounts[0].IsSigner)
	assert.True(t, ix.Accounts[3].IsSigner)
	assert.False(t, ix.Accounts[1].IsSigner)

	txn := solana.NewTransaction(accounts.SenderWallet, ix.ToLegacyInstruction())

	decodedArgs, decodedAccounts, err := InitGrantInstructionFromLegacyInstruction(txn, 0)
	require.NoError(t, err)

	assert.Equal(t, args.AuthorityBump, decodedArgs.AuthorityBump)
	assert.EqualValues(t, args.OptionMarket, decodedArgs.OptionMarket)
	assert.Equal(t, args.AmountTotal, decodedArgs.AmountTotal)
	assert.Equal(t, args.IssuedAt, decodedArgs.IssuedAt)
	assert.Equal(t, args.DurationSec, decodedArgs.DurationSec)
	assert.Equal(t, args.CliffSec, decodedArgs.CliffSec)
	assert.Equal(t, args.VestIntervalSec, decodedArgs.VestIntervalSec)
	assert.EqualValues(t, args.Recipient, decodedArgs.Recipient)

	assert.EqualValues(t, accounts.GrantAccount, decodedAccounts.GrantAccount)
	assert.EqualValues(t, accounts.Authority, decodedAccounts.Authority)
	assert.EqualValues(t, accounts.EscrowTokenAccount, decodedAccounts.EscrowTokenAccount)
	assert.EqualValues(t, accounts.SenderWallet, decodedAccounts.SenderWallet)
	assert.EqualValues(t, accounts.Mint, decodedAccounts.Mint)
}

func TestInitGrantInstruction_NoOptionMarket(t *testing.T) {
	args := &InitGrantInstructionArgs{
		AuthorityBump:   254,
		AmountTotal:     100,
		IssuedAt:        1,
		DurationSec:     60,
		CliffSec:        0,
		VestIntervalSec: 1,
		Recipient:       newTestKey(t),
	}
	accounts := &InitGrantInstructionAccounts{
		GrantAccount:       newTestKey(t),
		Authority:          newTestKey(t),
		EscrowTokenAccount: newTestKey(t),
		SenderWallet:       newTestKey(t),
		Mint:               newTestKey(t),
	}

	ix := NewInitGrantInstruction(accounts, args)
	txn := solana.NewTransaction(accounts.SenderWallet, ix.ToLegacyInstruction())

	decodedArgs, _, err := InitGrantInstructionFromLegacyInstruction(txn, 0)
	require.NoError(t, err)
	assert.Nil(t, []byte(decodedArgs.OptionMarket))
}

func TestUnlockGrantInstruction_RoundTrip(t *testing.T) {
	args := &UnlockGrantInstructionArgs{AuthorityBump: 251}
	accounts := &UnlockGrantInstructionAccounts{
		GrantAccount:          newTestKey(t),
		Authority:             newTestKey(t),
		EscrowTokenAccount:    newTestKey(t),
		RecipientWallet:       newTestKey(t),
		RecipientTokenAccount: newTestKey(t),
	}

	ix := NewUnlockGrantInstruction(accounts, args)
	require.Len(t, ix.Data, UnlockGrantInstructionSize)

	// Only the recipient wallet signs.
	for i, meta := range ix.Accounts {
		if i == 3 {
			assert.True(t, meta.IsSigner)
		} else {
			assert.False(t, meta.IsSigner)
		}
	}

	txn := solana.NewTransaction(accounts.RecipientWallet, ix.ToLegacyInstruction())

	decodedArgs, decodedAccounts, err := UnlockGrantInstructionFromLegacyInstruction(txn, 0)
	require.NoError(t, err)
	assert.Equal(t, args.AuthorityBump, decodedArgs.AuthorityBump)
	assert.EqualValues(t, accounts.GrantAccount, decodedAccounts.GrantAccount)
	assert.EqualValues(t, accounts.RecipientWallet, decodedAccounts.RecipientWallet)
	assert.EqualValues(t, accounts.RecipientTokenAccount, decodedAccounts.RecipientTokenAccount)
}

func TestRevokeGrantInstruction_RoundTrip(t *testing.T) {
	args := &RevokeGrantInstructionArgs{AuthorityBump: 249}
	accounts := &RevokeGrantInstructionAccounts{
		GrantAccount:       newTestKey(t),
		Authority:          newTestKey(t),
		EscrowTokenAccount: newTestKey(t),
		SenderWallet:       newTestKey(t),
		SenderTokenAccount: newTestKey(t),
	}

	ix := NewRevokeGrantInstruction(accounts, args)
	require.Len(t, ix.Data, RevokeGrantInstructionSize)

	txn := solana.NewTransaction(accounts.SenderWallet, ix.ToLegacyInstruction())

	decodedArgs, decodedAccounts, err := RevokeGrantInstructionFromLegacyInstruction(txn, 0)
	require.NoError(t, err)
	assert.Equal(t, args.AuthorityBump, decodedArgs.AuthorityBump)
	assert.EqualValues(t, accounts.SenderWallet, decodedAccounts.SenderWallet)
	assert.EqualValues(t, accounts.SenderTokenAccount, decodedAccounts.SenderTokenAccount)
}

func TestInstruction_WrongProgram(t *testing.T) {
	otherProgram, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	ix := solana.NewInstruction(otherProgram, make([]byte, UnlockGrantInstructionSize))
	txn := solana.NewTransaction(newTestKey(t), ix)

	_, _, err = UnlockGrantInstructionFromLegacyInstruction(txn, 0)
	assert.Equal(t, ErrInvalidInstructionData, err)
}
