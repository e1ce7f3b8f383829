package psyoptions

import (
	"bytes"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var exerciseOptionInstructionDiscriminator = []byte{
	231, 98, 131, 183, 245, 93, 122, 48,
}

const (
	ExerciseOptionInstructionArgsSize = 8 // Size

	ExerciseOptionInstructionSize = (8 + // discriminator
		ExerciseOptionInstructionArgsSize) // args
)

type ExerciseOptionInstructionArgs struct {
	Size uint64
}

type ExerciseOptionInstructionAccounts struct {
	UserAuthority              ed25519.PublicKey
	OptionMarket               ed25519.PublicKey
	OptionMint                 ed25519.PublicKey
	OptionTokenSource          ed25519.PublicKey
	UnderlyingAssetPool        ed25519.PublicKey
	UnderlyingAssetDestination ed25519.PublicKey
	QuoteAssetPool             ed25519.PublicKey
	QuoteAssetSource           ed25519.PublicKey
	ExerciseFeeAccount         ed25519.PublicKey
}

func NewExerciseOptionInstruction(
	accounts *ExerciseOptionInstructionAccounts,
	args *ExerciseOptionInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(exerciseOptionInstructionDiscriminator)+
			ExerciseOptionInstructionArgsSize)

	putDiscriminator(data, exerciseOptionInstructionDiscriminator, &offset)
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
				PublicKey:  accounts.QuoteAssetPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.QuoteAssetSource,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ExerciseFeeAccount,
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

func ExerciseOptionInstructionFromLegacyInstruction(txn solana.Transaction, idx int) (*ExerciseOptionInstructionArgs, *ExerciseOptionInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(PROGRAM_ADDRESS, programAccount) {
		return nil, nil, ErrInvalidInstructionData
	}

	if len(instruction.Data) < ExerciseOptionInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	getDiscriminator(instruction.Data, &discriminator, &offset)

	if !bytes.Equal(discriminator, exerciseOptionInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args ExerciseOptionInstructionArgs
	var accounts ExerciseOptionInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.Size, &offset)

	// Instruction Accounts
	accounts.UserAuthority = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.OptionMarket = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.OptionMint = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.OptionTokenSource = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.UnderlyingAssetPool = txn.Message.Accounts[instruction.Accounts[4]]
	accounts.UnderlyingAssetDestination = txn.Message.Accounts[instruction.Accounts[5]]
	accounts.QuoteAssetPool = txn.Message.Accounts[instruction.Accounts[6]]
	accounts.QuoteAssetSource = txn.Message.Accounts[instruction.Accounts[7]]
	accounts.ExerciseFeeAccount = txn.Message.Accounts[instruction.Accounts[8]]

	return &args, &accounts, nil
}
