package psyoptions

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var closePositionInstructionDiscriminator = []byte{
	123, 134, 81, 0, 49, 68, 98, 98,
}

const (
	ClosePositionInstructionArgsSize = 8 // Size

	ClosePositionInstructionSize = (8 + // discriminator
		ClosePositionInstructionArgsSize) // args
)

type ClosePositionInstructionArgs struct {
	Size uint64
}

type ClosePositionInstructionAccounts struct {
	UserAuthority              ed25519.PublicKey
	OptionMarket               ed25519.PublicKey
	OptionMint                 ed25519.PublicKey
	OptionTokenSource          ed25519.PublicKey
	WriterTokenMint            ed25519.PublicKey
	WriterTokenSource          ed25519.PublicKey
	UnderlyingAssetPool        ed25519.PublicKey
	UnderlyingAssetDestination ed25519.PublicKey
}

func NewClosePositionInstruction(
	accounts *ClosePositionInstructionAccounts,
	args *ClosePositionInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(closePositionInstructionDiscriminator)+
			ClosePositionInstructionArgsSize)

	putDiscriminator(data, closePositionInstructionDiscriminator, &offset)
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
				PublicKey:  accounts.OptionTokenSource,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.WriterTokenMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.WriterTokenSource,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UnderlyingAssetPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UnderlyingAssetDestination,
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

func ClosePositionInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*ClosePositionInstructionArgs, *ClosePositionInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < ClosePositionInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, closePositionInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args ClosePositionInstructionArgs
	var accounts ClosePositionInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.Size, &offset)

	// Instruction Accounts
	accounts.UserAuthority = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.OptionMarket = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.OptionMint = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.OptionTokenSource = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.WriterTokenMint = txn.Message.Accounts[instruction.Accounts[4]]
	accounts.WriterTokenSource = txn.Message.Accounts[instruction.Accounts[5]]
	accounts.UnderlyingAssetPool = txn.Message.Accounts[instruction.Accounts[6]]
	accounts.UnderlyingAssetDestination = txn.Message.Accounts[instruction.Accounts[7]]

	return &args, &accounts, nil
}
