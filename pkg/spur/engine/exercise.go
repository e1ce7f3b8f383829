package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/token"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

// ExerciseGrant exercises every unlocked option contract the recipient is
// holding for the grant's market, paying the strike from the recipient's
// quote token account and receiving the underlying tokens in return.
//
// Only contracts already unlocked into the recipient's wallet can be
// exercised. Revocation doesn't claw those back, so exercising a revoked
// grant's unlocked contracts is allowed.
func (e *Engine) ExerciseGrant(ctx context.Context, address string, recipient *common.Account) (uint64, solana.Signature, error) {
	var sig solana.Signature

	if err := recipient.Validate(); err != nil {
		return 0, sig, ErrInvalidAccount
	}

	record, err := e.GetGrant(ctx, address)
	if err != nil {
		return 0, sig, err
	}

	if record.Recipient != recipient.PublicKey().ToBase58() {
		return 0, sig, ErrNotRecipient
	}

	if !record.IsOptionGrant() {
		return 0, sig, ErrNotOptionGrant
	}

	marketAddress, err := decodePublicKey(*record.OptionMarket)
	if err != nil {
		return 0, sig, err
	}

	market, err := e.options.GetMarket(ctx, marketAddress)
	if err != nil {
		return 0, sig, errors.Wrap(err, "error getting option market")
	}

	optionTokenAccount, err := token.GetAssociatedAccount(recipient.PublicKey().ToBytes(), market.OptionMint)
	if err != nil {
		return 0, sig, errors.Wrap(err, "error deriving option token account")
	}

	balance, _, err := e.client.GetTokenAccountBalance(optionTokenAccount)
	if err == solana.ErrNoBalance {
		return 0, sig, ErrNothingToExercise
	} else if err != nil {
		return 0, sig, errors.Wrap(err, "error getting option token balance")
	}
	if balance == 0 {
		return 0, sig, ErrNothingToExercise
	}

	var instructions []solana.Instruction

	quoteTokenAccount, createQuoteAta, err := e.ensureAssociatedAccount(recipient, market.Terms.QuoteMint)
	if err != nil {
		return 0, sig, err
	}
	instructions = append(instructions, createQuoteAta...)

	underlyingTokenAccount, createUnderlyingAta, err := e.ensureAssociatedAccount(recipient, market.Terms.UnderlyingMint)
	if err != nil {
		return 0, sig, err
	}
	instructions = append(instructions, createUnderlyingAta...)

	exercise, err := e.options.ExerciseContracts(
		market,
		recipient,
		optionTokenAccount,
		quoteTokenAccount,
		underlyingTokenAccount,
		balance,
	)
	if err != nil {
		return 0, sig, errors.Wrap(err, "error building exercise instructions")
	}
	instructions = append(instructions, exercise...)

	sig, err = e.submit(recipient, instructions, recipient)
	if err != nil {
		return 0, sig, err
	}

	return balance, sig, nil
}
