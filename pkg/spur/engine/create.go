package engine

import (
	"context"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/psyoptions"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/solana/system"
	"github.com/spur-grants/grant-server/pkg/solana/token"
	"github.com/spur-grants/grant-server/pkg/spur/common"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
	"github.com/spur-grants/grant-server/pkg/spur/options"
	"github.com/spur-grants/grant-server/pkg/spur/vesting"
)

// Option markets expire at the start of the issuance month, ten years out.
// Pinning expiry to a month boundary keeps the number of distinct markets
// small, so grants issued in the same month share one market.
const optionExpiryYears = 10

// The strike is a single base unit of the quote asset per contract. The
// options are compensation, so the strike is symbolic rather than priced.
const quoteAmountPerContract = 1

type CreateGrantParams struct {
	Sender    *common.Account // must hold the private key
	Recipient *common.Account
	Mint      *common.Account

	// Amount in whole tokens. Scaled by the mint's decimals for plain
	// grants; for option grants this is the number of contracts, each
	// covering one whole token of the underlying.
	AmountTokens uint64

	IssuedAt        int64 // unix seconds, 0 means now
	DurationSec     uint64
	CliffSec        uint64
	VestIntervalSec uint64

	// Escrow option contracts on the mint instead of the tokens themselves
	AsOptions bool
}

// CreateGrant creates a new vesting grant in a single atomic transaction:
// the escrow is created and funded, and the grant account initialized, all
// or nothing.
func (e *Engine) CreateGrant(ctx context.Context, params *CreateGrantParams) (*grant.Record, solana.Signature, error) {
	log := e.log.WithField("method", "CreateGrant")

	var sig solana.Signature

	// All parameter validation happens before anything leaves the process.
	for _, account := range []*common.Account{params.Sender, params.Recipient, params.Mint} {
		if err := account.Validate(); err != nil {
			log.WithError(err).Info("rejecting grant with invalid accounts")
			return nil, sig, ErrInvalidAccount
		}
	}

	if params.AmountTokens == 0 {
		return nil, sig, ErrInvalidAmount
	}

	if _, err := params.Sender.ToPrivateKey(); err != nil {
		return nil, sig, errors.Wrap(err, "sender must be able to sign")
	}

	issuedAt := params.IssuedAt
	if issuedAt == 0 {
		issuedAt = time.Now().Unix()
	}

	mintState, err := e.getMint(params.Mint)
	if err != nil {
		return nil, sig, err
	}
	unitsPerToken := pow10(mintState.Decimals)

	// The full grant is funded up front in base units, so the scaled amount
	// must fit in a uint64.
	if params.AmountTokens > math.MaxUint64/unitsPerToken {
		return nil, sig, ErrInvalidAmount
	}

	// Grant units: base units of the mint for plain grants, whole contracts
	// for option grants.
	amountTotal := params.AmountTokens * unitsPerToken
	if params.AsOptions {
		amountTotal = params.AmountTokens
	}

	schedule := vesting.Schedule{
		IssuedAt:    issuedAt,
		DurationSec: params.DurationSec,
		CliffSec:    params.CliffSec,
		IntervalSec: params.VestIntervalSec,
		AmountTotal: amountTotal,
	}
	if err := schedule.Validate(); err != nil {
		log.WithError(err).Info("rejecting grant with invalid schedule")
		return nil, sig, ErrInvalidSchedule
	}

	authority, authorityBump, err := spur.GetAuthorityAddress()
	if err != nil {
		return nil, sig, errors.Wrap(err, "error deriving grant authority")
	}

	senderTokenAccount, err := params.Sender.ToAssociatedTokenAccount(params.Mint)
	if err != nil {
		return nil, sig, err
	}

	// The sender funds the full grant up front, in base units either way.
	required := params.AmountTokens * unitsPerToken
	balance, _, err := e.client.GetTokenAccountBalance(senderTokenAccount.PublicKey().ToBytes())
	if err != nil {
		return nil, sig, errors.Wrap(err, "error getting sender token balance")
	}
	if balance < required {
		return nil, sig, ErrInsufficientFunds
	}

	grantAccount, err := common.NewRandomAccount()
	if err != nil {
		return nil, sig, err
	}
	escrowAccount, err := common.NewRandomAccount()
	if err != nil {
		return nil, sig, err
	}

	var instructions []solana.Instruction
	var market *options.Market
	var optionMarketKey []byte

	escrowMint := params.Mint.PublicKey().ToBytes()
	if params.AsOptions {
		terms := &options.MarketTerms{
			UnderlyingMint:              params.Mint.PublicKey().ToBytes(),
			QuoteMint:                   psyoptions.WRAPPED_SOL_MINT,
			UnderlyingAmountPerContract: unitsPerToken,
			QuoteAmountPerContract:      quoteAmountPerContract,
			ExpirationUnixTimestamp:     optionExpiry(issuedAt),
		}

		var marketInit []solana.Instruction
		market, marketInit, err = e.options.EnsureMarket(ctx, params.Sender, terms)
		if err != nil {
			return nil, sig, errors.Wrap(err, "error resolving option market")
		}

		instructions = append(instructions, marketInit...)
		escrowMint = market.OptionMint
		optionMarketKey = market.Address
	}

	rent, err := e.client.GetMinimumBalanceForRentExemption(token.AccountSize)
	if err != nil {
		return nil, sig, errors.Wrap(err, "error getting rent for escrow account")
	}

	instructions = append(instructions,
		system.CreateAccount(
			params.Sender.PublicKey().ToBytes(),
			escrowAccount.PublicKey().ToBytes(),
			token.ProgramKey,
			rent,
			token.AccountSize,
		),
		token.InitializeAccount(
			escrowAccount.PublicKey().ToBytes(),
			escrowMint,
			authority,
		),
	)

	if params.AsOptions {
		// Contracts are minted directly into the escrow, funded from the
		// sender's token account. The writer tokens stay with the sender.
		writerTokenAccount, createWriterAta, err := e.ensureAssociatedAccount(params.Sender, market.WriterTokenMint)
		if err != nil {
			return nil, sig, err
		}
		instructions = append(instructions, createWriterAta...)

		mintContracts, err := e.options.MintContracts(
			market,
			params.Sender,
			senderTokenAccount.PublicKey().ToBytes(),
			escrowAccount.PublicKey().ToBytes(),
			writerTokenAccount,
			params.AmountTokens,
		)
		if err != nil {
			return nil, sig, errors.Wrap(err, "error building mint instructions")
		}
		instructions = append(instructions, mintContracts...)
	} else {
		instructions = append(instructions, token.Transfer(
			senderTokenAccount.PublicKey().ToBytes(),
			escrowAccount.PublicKey().ToBytes(),
			params.Sender.PublicKey().ToBytes(),
			amountTotal,
		))
	}

	initGrant := spur.NewInitGrantInstruction(
		&spur.InitGrantInstructionAccounts{
			GrantAccount:       grantAccount.PublicKey().ToBytes(),
			Authority:          authority,
			EscrowTokenAccount: escrowAccount.PublicKey().ToBytes(),
			SenderWallet:       params.Sender.PublicKey().ToBytes(),
			Mint:               params.Mint.PublicKey().ToBytes(),
		},
		&spur.InitGrantInstructionArgs{
			AuthorityBump:   authorityBump,
			OptionMarket:    optionMarketKey,
			AmountTotal:     amountTotal,
			IssuedAt:        issuedAt,
			DurationSec:     params.DurationSec,
			CliffSec:        params.CliffSec,
			VestIntervalSec: params.VestIntervalSec,
			Recipient:       params.Recipient.PublicKey().ToBytes(),
		},
	)
	instructions = append(instructions, initGrant.ToLegacyInstruction())

	sig, err = e.submit(params.Sender, instructions, params.Sender, grantAccount, escrowAccount)
	if err != nil {
		return nil, sig, err
	}

	var optionMarket *string
	if params.AsOptions {
		value := base58.Encode(market.Address)
		optionMarket = &value
	}

	record := &grant.Record{
		Address: grantAccount.PublicKey().ToBase58(),

		Authority:     base58.Encode(authority),
		AuthorityBump: authorityBump,

		Mint:         params.Mint.PublicKey().ToBase58(),
		OptionMarket: optionMarket,

		Sender:    params.Sender.PublicKey().ToBase58(),
		Recipient: params.Recipient.PublicKey().ToBase58(),

		EscrowTokenAccount: escrowAccount.PublicKey().ToBase58(),

		AmountTotal:     amountTotal,
		IssuedAt:        issuedAt,
		DurationSec:     params.DurationSec,
		CliffSec:        params.CliffSec,
		VestIntervalSec: params.VestIntervalSec,
	}

	if err := e.data.Save(ctx, record); err != nil {
		log.WithError(err).Warn("grant submitted but failed to cache record")
		return nil, sig, errors.Wrap(err, "error saving grant record")
	}

	return record, sig, nil
}

func optionExpiry(issuedAt int64) int64 {
	t := time.Unix(issuedAt, 0).UTC()
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return monthStart.AddDate(optionExpiryYears, 0, 0).Unix()
}

func pow10(exp uint8) uint64 {
	res := uint64(1)
	for i := uint8(0); i < exp; i++ {
		res *= 10
	}
	return res
}
