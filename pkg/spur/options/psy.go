package options

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/psyoptions"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

var (
	optionMintSeed      = []byte("optionToken")
	writerTokenMintSeed = []byte("writerToken")
	underlyingPoolSeed  = []byte("underlyingAssetPool")
	quotePoolSeed       = []byte("quoteAssetPool")
)

type psyAdapter struct {
	log    *logrus.Entry
	client solana.Client

	feeOwner ed25519.PublicKey
}

// NewPsyOptionsAdapter returns an Adapter backed by the PsyOptions
// American options program.
func NewPsyOptionsAdapter(client solana.Client, feeOwner ed25519.PublicKey) Adapter {
	return &psyAdapter{
		log:      logrus.StandardLogger().WithField("type", "options/psy"),
		client:   client,
		feeOwner: feeOwner,
	}
}

// EnsureMarket implements Adapter.EnsureMarket
func (a *psyAdapter) EnsureMarket(ctx context.Context, payer *common.Account, terms *MarketTerms) (*Market, []solana.Instruction, error) {
	log := a.log.WithField("method", "EnsureMarket")

	address, bump, err := psyoptions.GetOptionMarketAddress(&psyoptions.GetOptionMarketAddressArgs{
		UnderlyingAssetMint:         terms.UnderlyingMint,
		QuoteAssetMint:              terms.QuoteMint,
		UnderlyingAmountPerContract: terms.UnderlyingAmountPerContract,
		QuoteAmountPerContract:      terms.QuoteAmountPerContract,
		ExpirationUnixTimestamp:     terms.ExpirationUnixTimestamp,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving option market address")
	}

	accountInfo, err := a.client.GetAccountInfo(address, solana.CommitmentFinalized)
	switch err {
	case nil:
		var state psyoptions.OptionMarket
		if err := state.Unmarshal(accountInfo.Data); err != nil {
			return nil, nil, errors.Wrap(err, "error unmarshalling option market account")
		}

		market := newMarketFromProgramAccount(address, &state)
		return market, nil, nil
	case solana.ErrNoAccountInfo:
		// The market doesn't exist yet, so initialize it below.
	default:
		log.WithError(err).Warn("failure getting option market account")
		return nil, nil, errors.Wrap(err, "error getting option market account")
	}

	market, err := a.deriveUninitializedMarket(address, bump, terms)
	if err != nil {
		return nil, nil, err
	}

	instruction := psyoptions.NewInitializeMarketInstruction(
		&psyoptions.InitializeMarketInstructionAccounts{
			Authority:           payer.PublicKey().ToBytes(),
			UnderlyingAssetMint: terms.UnderlyingMint,
			QuoteAssetMint:      terms.QuoteMint,
			OptionMint:          market.OptionMint,
			WriterTokenMint:     market.WriterTokenMint,
			QuoteAssetPool:      market.QuoteAssetPool,
			UnderlyingAssetPool: market.UnderlyingAssetPool,
			OptionMarket:        market.Address,
			FeeOwner:            a.feeOwner,
		},
		&psyoptions.InitializeMarketInstructionArgs{
			UnderlyingAmountPerContract: terms.UnderlyingAmountPerContract,
			QuoteAmountPerContract:      terms.QuoteAmountPerContract,
			ExpirationUnixTimestamp:     terms.ExpirationUnixTimestamp,
			BumpSeed:                    bump,
		},
	)

	return market, []solana.Instruction{instruction.ToLegacyInstruction()}, nil
}

// GetMarket implements Adapter.GetMarket
func (a *psyAdapter) GetMarket(ctx context.Context, address ed25519.PublicKey) (*Market, error) {
	accountInfo, err := a.client.GetAccountInfo(address, solana.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "error getting option market account")
	}

	var state psyoptions.OptionMarket
	if err := state.Unmarshal(accountInfo.Data); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling option market account")
	}

	return newMarketFromProgramAccount(address, &state), nil
}

// MintContracts implements Adapter.MintContracts
func (a *psyAdapter) MintContracts(market *Market, minter *common.Account, underlyingSource, optionDestination, writerDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	if size == 0 {
		return nil, errors.New("size must be positive")
	}

	instruction := psyoptions.NewMintOptionInstruction(
		&psyoptions.MintOptionInstructionAccounts{
			UserAuthority:          minter.PublicKey().ToBytes(),
			OptionMarket:           market.Address,
			OptionMint:             market.OptionMint,
			WriterTokenMint:        market.WriterTokenMint,
			UnderlyingAssetPool:    market.UnderlyingAssetPool,
			UnderlyingAssetSource:  underlyingSource,
			OptionTokenDestination: optionDestination,
			WriterTokenDestination: writerDestination,
			MintFeeAccount:         market.MintFeeAccount,
		},
		&psyoptions.MintOptionInstructionArgs{
			Size: size,
		},
	)

	return []solana.Instruction{instruction.ToLegacyInstruction()}, nil
}

// ExerciseContracts implements Adapter.ExerciseContracts
func (a *psyAdapter) ExerciseContracts(market *Market, exerciser *common.Account, optionSource, quoteSource, underlyingDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	if size == 0 {
		return nil, errors.New("size must be positive")
	}

	instruction := psyoptions.NewExerciseOptionInstruction(
		&psyoptions.ExerciseOptionInstructionAccounts{
			UserAuthority:              exerciser.PublicKey().ToBytes(),
			OptionMarket:               market.Address,
			OptionMint:                 market.OptionMint,
			OptionTokenSource:          optionSource,
			UnderlyingAssetPool:        market.UnderlyingAssetPool,
			UnderlyingAssetDestination: underlyingDestination,
			QuoteAssetPool:             market.QuoteAssetPool,
			QuoteAssetSource:           quoteSource,
			ExerciseFeeAccount:         market.ExerciseFeeAccount,
		},
		&psyoptions.ExerciseOptionInstructionArgs{
			Size: size,
		},
	)

	return []solana.Instruction{instruction.ToLegacyInstruction()}, nil
}

// ClosePosition implements Adapter.ClosePosition
func (a *psyAdapter) ClosePosition(market *Market, closer *common.Account, optionSource, writerSource, underlyingDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	if size == 0 {
		return nil, errors.New("size must be positive")
	}

	instruction := psyoptions.NewClosePositionInstruction(
		&psyoptions.ClosePositionInstructionAccounts{
			UserAuthority:              closer.PublicKey().ToBytes(),
			OptionMarket:               market.Address,
			OptionMint:                 market.OptionMint,
			OptionTokenSource:          optionSource,
			WriterTokenMint:            market.WriterTokenMint,
			WriterTokenSource:          writerSource,
			UnderlyingAssetPool:        market.UnderlyingAssetPool,
			UnderlyingAssetDestination: underlyingDestination,
		},
		&psyoptions.ClosePositionInstructionArgs{
			Size: size,
		},
	)

	return []solana.Instruction{instruction.ToLegacyInstruction()}, nil
}

// The option mint, writer token mint and asset pools are all PDAs owned by
// the options program, derived off the market account.
func (a *psyAdapter) deriveUninitializedMarket(address ed25519.PublicKey, bump uint8, terms *MarketTerms) (*Market, error) {
	optionMint, _, err := solana.FindProgramAddressAndBump(psyoptions.PROGRAM_ID, address, optionMintSeed)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving option mint")
	}

	writerTokenMint, _, err := solana.FindProgramAddressAndBump(psyoptions.PROGRAM_ID, address, writerTokenMintSeed)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving writer token mint")
	}

	underlyingAssetPool, _, err := solana.FindProgramAddressAndBump(psyoptions.PROGRAM_ID, address, underlyingPoolSeed)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving underlying asset pool")
	}

	quoteAssetPool, _, err := solana.FindProgramAddressAndBump(psyoptions.PROGRAM_ID, address, quotePoolSeed)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving quote asset pool")
	}

	mintFeeAccount, err := solana.FindProgramAddress(psyoptions.PROGRAM_ID, a.feeOwner, terms.UnderlyingMint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving mint fee account")
	}

	exerciseFeeAccount, err := solana.FindProgramAddress(psyoptions.PROGRAM_ID, a.feeOwner, terms.QuoteMint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving exercise fee account")
	}

	return &Market{
		Address: address,
		Bump:    bump,

		OptionMint:      optionMint,
		WriterTokenMint: writerTokenMint,

		UnderlyingAssetPool: underlyingAssetPool,
		QuoteAssetPool:      quoteAssetPool,
		MintFeeAccount:      mintFeeAccount,
		ExerciseFeeAccount:  exerciseFeeAccount,

		Terms: *terms,

		Initialized: false,
	}, nil
}

func newMarketFromProgramAccount(address ed25519.PublicKey, state *psyoptions.OptionMarket) *Market {
	return &Market{
		Address: address,
		Bump:    state.BumpSeed,

		OptionMint:      state.OptionMint,
		WriterTokenMint: state.WriterTokenMint,

		UnderlyingAssetPool: state.UnderlyingAssetPool,
		QuoteAssetPool:      state.QuoteAssetPool,
		MintFeeAccount:      state.MintFeeAccount,
		ExerciseFeeAccount:  state.ExerciseFeeAccount,

		Terms: MarketTerms{
			UnderlyingMint:              state.UnderlyingAssetMint,
			QuoteMint:                   state.QuoteAssetMint,
			UnderlyingAmountPerContract: state.UnderlyingAmountPerContract,
			QuoteAmountPerContract:      state.QuoteAmountPerContract,
			ExpirationUnixTimestamp:     state.ExpirationUnixTimestamp,
		},

		Initialized: true,
	}
}
