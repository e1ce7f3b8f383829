package spur

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var revokeGrantInstructionDiscriminator = []byte{
	134, 180, 57, 39, 152, 7, 154, 98,
}

const (
	RevokeGrantInstructionArgsSize = 1 // AuthorityBump

	RevokeGrantInstructionSize = (8 + // discriminator
		RevokeGrantInstructionArgsSize) // args
)

type RevokeGrantInstructionArgs struct {
	AuthorityBump uint8
}

type RevokeGrantInstructionAccounts struct {
	GrantAccount       ed25519.PublicKey
	Authority          ed25519.PublicKey
	EscrowTokenAccount ed25519.PublicKey
	SenderWallet       ed25519.PublicKey
	SenderTokenAccount ed25519.PublicKey
}

func NewRevokeGrantInstruction(
	accounts *RevokeGrantInstructionAccounts,
	args *RevokeGrantInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(revokeGrantInstructionDiscriminator)+
			RevokeGrantInstructionArgsSize)

	putDiscriminator(data, revokeGrantInstructionDiscriminator, &offset)
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
				PublicKey:  accounts.SenderWallet,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.SenderTokenAccount,
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

func RevokeGrantInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*RevokeGrantInstructionArgs, *RevokeGrantInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < RevokeGrantInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, revokeGrantInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args RevokeGrantInstructionArgs
	var accounts RevokeGrantInstructionAccounts

	// Instruction Args
	getUint8(instruction.Data, &args.AuthorityBump, &offset)

	// Instruction Accounts
	accounts.GrantAccount = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.Authority = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.EscrowTokenAccount = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.SenderWallet = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.SenderTokenAccount = txn.Message.Accounts[instruction.Accounts[4]]

	return &args, &accounts, nil
}
