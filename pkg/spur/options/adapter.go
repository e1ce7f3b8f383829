package options

import (
	"context"
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

// MarketTerms are the contract terms that uniquely identify an option
// market. Identical terms always resolve to the same market.
type MarketTerms struct {
	UnderlyingMint ed25519.PublicKey
	QuoteMint      ed25519.PublicKey

	UnderlyingAmountPerContract uint64
	QuoteAmountPerContract      uint64
	ExpirationUnixTimestamp     int64
}

// Market is the resolved view of an option market.
type Market struct {
	Address ed25519.PublicKey
	Bump    uint8

	OptionMint      ed25519.PublicKey
	WriterTokenMint ed25519.PublicKey

	UnderlyingAssetPool ed25519.PublicKey
	QuoteAssetPool      ed25519.PublicKey
	MintFeeAccount      ed25519.PublicKey
	ExerciseFeeAccount  ed25519.PublicKey

	Terms MarketTerms

	// Whether the market account already exists on the blockchain
	Initialized bool
}

// Adapter abstracts the options protocol used for option-type grants. The
// grant engine only depends on this boundary, never on protocol internals.
type Adapter interface {
	// EnsureMarket resolves the option market for the provided contract
	// terms. When the market doesn't exist on chain yet, the returned
	// instructions initialize it and must be bundled ahead of any mint.
	// Resolution is idempotent: repeated calls with the same terms return
	// the same market.
	EnsureMarket(ctx context.Context, payer *common.Account, terms *MarketTerms) (*Market, []solana.Instruction, error)

	// GetMarket fetches an existing market by its address.
	GetMarket(ctx context.Context, address ed25519.PublicKey) (*Market, error)

	// MintContracts returns instructions minting size option contracts,
	// funding them from underlyingSource and delivering the option tokens
	// to optionDestination.
	MintContracts(market *Market, minter *common.Account, underlyingSource, optionDestination, writerDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error)

	// ExerciseContracts returns instructions exercising size option
	// contracts, paying the strike from quoteSource and delivering the
	// underlying to underlyingDestination.
	ExerciseContracts(market *Market, exerciser *common.Account, optionSource, quoteSource, underlyingDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error)

	// ClosePosition returns instructions burning size option and writer
	// token pairs to recover the escrowed underlying.
	ClosePosition(market *Market, closer *common.Account, optionSource, writerSource, underlyingDestination ed25519.PublicKey, size uint64) ([]solana.Instruction, error)
}
