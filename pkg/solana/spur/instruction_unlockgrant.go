package spur

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var unlockGrantInstructionDiscriminator = []byte{
	52, 74, 104, 227, 148, 10, 17, 49,
}

const (
	UnlockGrantInstructionArgsSize = 1 // AuthorityBump

	UnlockGrantInstructionSize = (8 + // discriminator
		UnlockGrantInstructionArgsSize) // args
)

type UnlockGrantInstructionArgs struct {
	AuthorityBump uint8
}

type UnlockGrantInstructionAccounts struct {
	GrantAccount          ed25519.PublicKey
	Authority             ed25519.PublicKey
	EscrowTokenAccount    ed25519.PublicKey
	RecipientWallet       ed25519.PublicKey
	RecipientTokenAccount ed25519.PublicKey
}

func NewUnlockGrantInstruction(
	accounts *UnlockGrantInstructionAccounts,
	args *UnlockGrantInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(unlockGrantInstructionDiscriminator)+
			UnlockGrantInstructionArgsSize)

	putDiscriminator(data, unlockGrantInstructionDiscriminator, &offset)
	putUint8(data, args.AuthorityBump, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.GrantAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.EscrowTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RecipientWallet,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.RecipientTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_CLOCK_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func UnlockGrantInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*UnlockGrantInstructionArgs, *UnlockGrantInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < UnlockGrantInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, unlockGrantInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args UnlockGrantInstructionArgs
	var accounts UnlockGrantInstructionAccounts

	// Instruction Args
	getUint8(instruction.Data, &args.AuthorityBump, &offset)

	// Instruction Accounts
	accounts.GrantAccount = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.Authority = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.EscrowTokenAccount = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.RecipientWallet = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.RecipientTokenAccount = txn.Message.Accounts[instruction.Accounts[4]]

	return &args, &accounts, nil
}
