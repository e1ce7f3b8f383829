package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

// UnlockGrant transfers all currently claimable tokens from the grant's
// escrow to the recipient's token account. Calling with nothing claimable
// is a no-op, not an error, so clients can poll freely.
func (e *Engine) UnlockGrant(ctx context.Context, address string, recipient *common.Account) (uint64, solana.Signature, error) {
	log := e.log.WithFields(map[string]interface{}{
		"method": "UnlockGrant",
		"grant":  address,
	})

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

	if record.Revoked {
		return 0, sig, ErrGrantRevoked
	}

	now := time.Now().Unix()
	claimable := record.Schedule().ClaimableAmount(now, record.AmountUnlocked)
	if claimable == 0 {
		log.Debug("nothing claimable yet")
		return 0, sig, nil
	}

	// Option grants escrow option tokens, so the claim lands in the
	// recipient's option token account rather than the mint's.
	escrowMint, err := decodePublicKey(record.Mint)
	if err != nil {
		return 0, sig, err
	}
	if record.IsOptionGrant() {
		marketAddress, err := decodePublicKey(*record.OptionMarket)
		if err != nil {
			return 0, sig, err
		}

		market, err := e.options.GetMarket(ctx, marketAddress)
		if err != nil {
			return 0, sig, errors.Wrap(err, "error getting option market")
		}
		escrowMint = market.OptionMint
	}

	recipientTokenAccount, createAta, err := e.ensureAssociatedAccount(recipient, escrowMint)
	if err != nil {
		return 0, sig, err
	}

	grantAccount, err := decodePublicKey(record.Address)
	if err != nil {
		return 0, sig, err
	}
	authority, err := decodePublicKey(record.Authority)
	if err != nil {
		return 0, sig, err
	}
	escrowTokenAccount, err := decodePublicKey(record.EscrowTokenAccount)
	if err != nil {
		return 0, sig, err
	}

	unlock := spur.NewUnlockGrantInstruction(
		&spur.UnlockGrantInstructionAccounts{
			GrantAccount:          grantAccount,
			Authority:             authority,
			EscrowTokenAccount:    escrowTokenAccount,
			RecipientWallet:       recipient.PublicKey().ToBytes(),
			RecipientTokenAccount: recipientTokenAccount,
		},
		&spur.UnlockGrantInstructionArgs{
			AuthorityBump: record.AuthorityBump,
		},
	)

	instructions := append(createAta, unlock.ToLegacyInstruction())

	sig, err = e.submit(recipient, instructions, recipient)
	if err != nil {
		return 0, sig, err
	}

	// Optimistic cache update. The slot bump keeps the stale-state guard
	// intact until the next chain observation reconciles the record.
	record.AmountUnlocked += claimable
	record.LastUnlockAt = now
	record.Slot += 1
	if err := e.data.Save(ctx, record); err != nil {
		log.WithError(err).Warn("unlock submitted but failed to update cached record")
	}

	return claimable, sig, nil
}
