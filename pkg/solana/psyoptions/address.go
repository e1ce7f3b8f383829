package psyoptions

import (
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

type GetOptionMarketAddressArgs struct {
	UnderlyingAssetMint         ed25519.PublicKey
	QuoteAssetMint              ed25519.PublicKey
	UnderlyingAmountPerContract uint64
	QuoteAmountPerContract      uint64
	ExpirationUnixTimestamp     int64
}

// GetOptionMarketAddress derives the market account for a set of contract
// terms. Identical terms always resolve to the same market, which is what
// makes EnsureMarket idempotent.
func GetOptionMarketAddress(args *GetOptionMarketAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.UnderlyingAssetMint,
		args.QuoteAssetMint,
		uint64Bytes(args.UnderlyingAmountPerContract),
		uint64Bytes(args.QuoteAmountPerContract),
		int64Bytes(args.ExpirationUnixTimestamp),
	)
}
