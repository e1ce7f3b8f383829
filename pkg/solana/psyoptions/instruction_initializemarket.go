package psyoptions

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var initializeMarketInstructionDiscriminator = []byte{
	35, 35, 189, 193, 155, 48, 170, 203,
}

const (
	InitializeMarketInstructionArgsSize = (8 + // UnderlyingAmountPerContract
		8 + // QuoteAmountPerContract
		8 + // ExpirationUnixTimestamp
		1) // BumpSeed

	InitializeMarketInstructionSize = (8 + // discriminator
		InitializeMarketInstructionArgsSize) // args
)

type InitializeMarketInstructionArgs struct {
	UnderlyingAmountPerContract uint64
	QuoteAmountPerContract      uint64
	ExpirationUnixTimestamp     int64
	BumpSeed                    uint8
}

type InitializeMarketInstructionAccounts struct {
	Authority           ed25519.PublicKey
	UnderlyingAssetMint ed25519.PublicKey
	QuoteAssetMint      ed25519.PublicKey
	OptionMint          ed25519.PublicKey
	WriterTokenMint     ed25519.PublicKey
	QuoteAssetPool      ed25519.PublicKey
	UnderlyingAssetPool ed25519.PublicKey
	OptionMarket        ed25519.PublicKey
	FeeOwner            ed25519.PublicKey
}

func NewInitializeMarketInstruction(
	accounts *InitializeMarketInstructionAccounts,
	args *InitializeMarketInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(initializeMarketInstructionDiscriminator)+
			InitializeMarketInstructionArgsSize)

	putDiscriminator(data, initializeMarketInstructionDiscriminator, &offset)
	putUint64(data, args.UnderlyingAmountPerContract, &offset)
	putUint64(data, args.QuoteAmountPerContract, &offset)
	putInt64(data, args.ExpirationUnixTimestamp, &offset)
	putUint8(data, args.BumpSeed, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UnderlyingAssetMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.QuoteAssetMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.OptionMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.WriterTokenMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.QuoteAssetPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UnderlyingAssetPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.OptionMarket,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.FeeOwner,
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
			{
				PublicKey:  SYSVAR_CLOCK_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func InitializeMarketInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*InitializeMarketInstructionArgs, *InitializeMarketInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < InitializeMarketInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, initializeMarketInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args InitializeMarketInstructionArgs
	var accounts InitializeMarketInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.UnderlyingAmountPerContract, &offset)
	getUint64(instruction.Data, &args.QuoteAmountPerContract, &offset)
	getInt64(instruction.Data, &args.ExpirationUnixTimestamp, &offset)
	getUint8(instruction.Data, &args.BumpSeed, &offset)

	// Instruction Accounts
	accounts.Authority = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.UnderlyingAssetMint = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.QuoteAssetMint = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.OptionMint = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.WriterTokenMint = txn.Message.Accounts[instruction.Accounts[4]]
	accounts.QuoteAssetPool = txn.Message.Accounts[instruction.Accounts[5]]
	accounts.UnderlyingAssetPool = txn.Message.Accounts[instruction.Accounts[6]]
	accounts.OptionMarket = txn.Message.Accounts[instruction.Accounts[7]]
	accounts.FeeOwner = txn.Message.Accounts[instruction.Accounts[8]]

	return &args, &accounts, nil
}
