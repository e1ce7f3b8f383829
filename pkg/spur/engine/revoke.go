package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

// RevokeGrant terminates a grant and returns everything still in escrow to
// the sender. Already unlocked tokens stay with the recipient. Revocation
// is terminal: a revoked grant can never unlock again.
//
// For option grants the reclaimed contracts are paired with the sender's
// writer tokens and closed in the same transaction, recovering the escrowed
// underlying tokens.
func (e *Engine) RevokeGrant(ctx context.Context, address string, sender *common.Account) (uint64, solana.Signature, error) {
	log := e.log.WithFields(map[string]interface{}{
		"method": "RevokeGrant",
		"grant":  address,
	})

	var sig solana.Signature

	if err := sender.Validate(); err != nil {
		return 0, sig, ErrInvalidAccount
	}

	record, err := e.GetGrant(ctx, address)
	if err != nil {
		return 0, sig, err
	}

	if record.Sender != sender.PublicKey().ToBase58() {
		return 0, sig, ErrNotSender
	}

	if record.Revoked {
		return 0, sig, ErrGrantRevoked
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
	mint, err := decodePublicKey(record.Mint)
	if err != nil {
		return 0, sig, err
	}

	// Escrow balance is the ground truth for what's reclaimable.
	remaining, _, err := e.client.GetTokenAccountBalance(escrowTokenAccount)
	if err != nil && err != solana.ErrNoBalance {
		return 0, sig, errors.Wrap(err, "error getting escrow balance")
	}

	var instructions []solana.Instruction

	reclaimMint := mint
	if record.IsOptionGrant() {
		marketAddress, err := decodePublicKey(*record.OptionMarket)
		if err != nil {
			return 0, sig, err
		}

		market, err := e.options.GetMarket(ctx, marketAddress)
		if err != nil {
			return 0, sig, errors.Wrap(err, "error getting option market")
		}
		reclaimMint = market.OptionMint

		senderOptionAccount, createOptionAta, err := e.ensureAssociatedAccount(sender, market.OptionMint)
		if err != nil {
			return 0, sig, err
		}
		instructions = append(instructions, createOptionAta...)

		revoke := spur.NewRevokeGrantInstruction(
			&spur.RevokeGrantInstructionAccounts{
				GrantAccount:       grantAccount,
				Authority:          authority,
				EscrowTokenAccount: escrowTokenAccount,
				SenderWallet:       sender.PublicKey().ToBytes(),
				SenderTokenAccount: senderOptionAccount,
			},
			&spur.RevokeGrantInstructionArgs{
				AuthorityBump: record.AuthorityBump,
			},
		)
		instructions = append(instructions, revoke.ToLegacyInstruction())

		// Close the reclaimed position to recover the underlying tokens.
		if remaining > 0 {
			senderWriterAccount, createWriterAta, err := e.ensureAssociatedAccount(sender, market.WriterTokenMint)
			if err != nil {
				return 0, sig, err
			}
			instructions = append(instructions, createWriterAta...)

			senderUnderlyingAccount, createUnderlyingAta, err := e.ensureAssociatedAccount(sender, mint)
			if err != nil {
				return 0, sig, err
			}
			instructions = append(instructions, createUnderlyingAta...)

			closePosition, err := e.options.ClosePosition(
				market,
				sender,
				senderOptionAccount,
				senderWriterAccount,
				senderUnderlyingAccount,
				remaining,
			)
			if err != nil {
				return 0, sig, errors.Wrap(err, "error building close position instructions")
			}
			instructions = append(instructions, closePosition...)
		}
	} else {
		senderTokenAccount, createAta, err := e.ensureAssociatedAccount(sender, reclaimMint)
		if err != nil {
			return 0, sig, err
		}
		instructions = append(instructions, createAta...)

		revoke := spur.NewRevokeGrantInstruction(
			&spur.RevokeGrantInstructionAccounts{
				GrantAccount:       grantAccount,
				Authority:          authority,
				EscrowTokenAccount: escrowTokenAccount,
				SenderWallet:       sender.PublicKey().ToBytes(),
				SenderTokenAccount: senderTokenAccount,
			},
			&spur.RevokeGrantInstructionArgs{
				AuthorityBump: record.AuthorityBump,
			},
		)
		instructions = append(instructions, revoke.ToLegacyInstruction())
	}

	sig, err = e.submit(sender, instructions, sender)
	if err != nil {
		return 0, sig, err
	}

	record.Revoked = true
	record.Slot += 1
	if err := e.data.Save(ctx, record); err != nil {
		log.WithError(err).Warn("revoke submitted but failed to update cached record")
	}

	return remaining, sig, nil
}
