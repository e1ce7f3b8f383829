package spur

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var initGrantInstructionDiscriminator = []byte{
	141, 28, 193, 26, 49, 149, 221, 134,
}

const (
	InitGrantInstructionArgsSize = (1 + // AuthorityBump
		33 + // OptionMarket (optional)
		8 + // AmountTotal
		8 + // IssuedAt
		8 + // DurationSec
		8 + // CliffSec
		8 + // VestIntervalSec
		32) // Recipient

	InitGrantInstructionSize = (8 + // discriminator
		InitGrantInstructionArgsSize) // args
)

type InitGrantInstructionArgs struct {
	AuthorityBump   uint8
	OptionMarket    ed25519.PublicKey // optional
	AmountTotal     uint64
	IssuedAt        int64
	DurationSec     uint64
	CliffSec        uint64
	VestIntervalSec uint64
	Recipient       ed25519.PublicKey
}

type InitGrantInstructionAccounts struct {
	GrantAccount       ed25519.PublicKey
	Authority          ed25519.PublicKey
	EscrowTokenAccount ed25519.PublicKey
	SenderWallet       ed25519.PublicKey
	Mint               ed25519.PublicKey
}

func NewInitGrantInstruction(
	accounts *InitGrantInstructionAccounts,
	args *InitGrantInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(initGrantInstructionDiscriminator)+
			InitGrantInstructionArgsSize)

	putDiscriminator(data, initGrantInstructionDiscriminator, &offset)
	putUint8(data, args.AuthorityBump, &offset)
	putOptionalKey(data, args.OptionMarket, &offset)
	putUint64(data, args.AmountTotal, &offset)
	putInt64(data, args.IssuedAt, &offset)
	putUint64(data, args.DurationSec, &offset)
	putUint64(data, args.CliffSec, &offset)
	putUint64(data, args.VestIntervalSec, &offset)
	putKey(data, args.Recipient, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.GrantAccount,
				IsWritable: true,
				IsSigner:   true,
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
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_RENT_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func InitGrantInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*InitGrantInstructionArgs, *InitGrantInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < InitGrantInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, initGrantInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args InitGrantInstructionArgs
	var accounts InitGrantInstructionAccounts

	// Instruction Args
	getUint8(instruction.Data, &args.AuthorityBump, &offset)
	getOptionalKey(instruction.Data, &args.OptionMarket, &offset)
	getUint64(instruction.Data, &args.AmountTotal, &offset)
	getInt64(instruction.Data, &args.IssuedAt, &offset)
	getUint64(instruction.Data, &args.DurationSec, &offset)
	getUint64(instruction.Data, &args.CliffSec, &offset)
	getUint64(instruction.Data, &args.VestIntervalSec, &offset)
	getKey(instruction.Data, &args.Recipient, &offset)

	// Instruction Accounts
	accounts.GrantAccount = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.Authority = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.EscrowTokenAccount = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.SenderWallet = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.Mint = txn.Message.Accounts[instruction.Accounts[4]]

	return &args, &accounts, nil
}
