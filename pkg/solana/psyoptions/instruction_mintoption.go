package psyoptions

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var mintOptionInstructionDiscriminator = []byte{
	76, 112, 32, 89, 147, 85, 222, 43,
}

const (
	MintOptionInstructionArgsSize = 8 // Size

	MintOptionInstructionSize = (8 + // discriminator
		MintOptionInstructionArgsSize) // args
)

type MintOptionInstructionArgs struct {
	Size uint64
}

type MintOptionInstructionAccounts struct {
	UserAuthority          ed25519.PublicKey
	OptionMarket           ed25519.PublicKey
	OptionMint             ed25519.PublicKey
	WriterTokenMint        ed25519.PublicKey
	UnderlyingAssetPool    ed25519.PublicKey
	UnderlyingAssetSource  ed25519.PublicKey
	OptionTokenDestination ed25519.PublicKey
	WriterTokenDestination ed25519.PublicKey
	MintFeeAccount         ed25519.PublicKey
}

func NewMintOptionInstruction(
	accounts *MintOptionInstructionAccounts,
	args *MintOptionInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(mintOptionInstructionDiscriminator)+
			MintOptionInstructionArgsSize)

	putDiscriminator(data, mintOptionInstructionDiscriminator, &offset)
	putUint64(data, args.Size, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.UserAuthority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.OptionMarket,
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
				PublicKey:  accounts.UnderlyingAssetPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UnderlyingAssetSource,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.OptionTokenDestination,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.WriterTokenDestination,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MintFeeAccount,
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

func MintOptionInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*MintOptionInstructionArgs, *MintOptionInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < MintOptionInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, mintOptionInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args MintOptionInstructionArgs
	var accounts MintOptionInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.Size, &offset)

	// Instruction Accounts
	accounts.UserAuthority = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.OptionMarket = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.OptionMint = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.WriterTokenMint = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.UnderlyingAssetPool = txn.Message.Accounts[instruction.Accounts[4]]
	accounts.UnderlyingAssetSource = txn.Message.Accounts[instruction.Accounts[5]]
	accounts.OptionTokenDestination = txn.Message.Accounts[instruction.Accounts[6]]
	accounts.WriterTokenDestination = txn.Message.Accounts[instruction.Accounts[7]]
	accounts.MintFeeAccount = txn.Message.Accounts[instruction.Accounts[8]]

	return &args, &accounts, nil
}
