package psyoptions

import (
	"bytes"
	"crypto/ed25519"
)

// OptionMarket is the on-chain state of an American-style option market.
// The engine treats it as an opaque boundary object: it only reads the
// contract terms and the mints it needs to route tokens.
type OptionMarket struct {
	OptionMint          ed25519.PublicKey
	WriterTokenMint     ed25519.PublicKey
	UnderlyingAssetMint ed25519.PublicKey
	QuoteAssetMint      ed25519.PublicKey

	UnderlyingAmountPerContract uint64
	QuoteAmountPerContract      uint64
	ExpirationUnixTimestamp     int64

	UnderlyingAssetPool ed25519.PublicKey
	QuoteAssetPool      ed25519.PublicKey
	MintFeeAccount      ed25519.PublicKey
	ExerciseFeeAccount  ed25519.PublicKey

	Expired  bool
	BumpSeed uint8
}

const OptionMarketSize = (8 + // discriminator
	32 + // option_mint
	32 + // writer_token_mint
	32 + // underlying_asset_mint
	32 + // quote_asset_mint
	8 + // underlying_amount_per_contract
	8 + // quote_amount_per_contract
	8 + // expiration_unix_timestamp
	32 + // underlying_asset_pool
	32 + // quote_asset_pool
	32 + // mint_fee_recipient
	32 + // exercise_fee_recipient
	1 + // expired
	1) // bump_seed

var optionMarketDiscriminator = []byte{175, 238, 162, 97, 53, 122, 16, 29}

func (obj *OptionMarket) Clone() *OptionMarket {
	clone := *obj
	return &clone
}

// Serializes the OptionMarket into a buffer.
func (obj *OptionMarket) Marshal() []byte {
	data := make([]byte, OptionMarketSize)

	var offset int

	putDiscriminator(data, optionMarketDiscriminator, &offset)

	putKey(data, obj.OptionMint, &offset)
	putKey(data, obj.WriterTokenMint, &offset)
	putKey(data, obj.UnderlyingAssetMint, &offset)
	putKey(data, obj.QuoteAssetMint, &offset)
	putUint64(data, obj.UnderlyingAmountPerContract, &offset)
	putUint64(data, obj.QuoteAmountPerContract, &offset)
	putInt64(data, obj.ExpirationUnixTimestamp, &offset)
	putKey(data, obj.UnderlyingAssetPool, &offset)
	putKey(data, obj.QuoteAssetPool, &offset)
	putKey(data, obj.MintFeeAccount, &offset)
	putKey(data, obj.ExerciseFeeAccount, &offset)
	putBool(data, obj.Expired, &offset)
	putUint8(data, obj.BumpSeed, &offset)

	return data
}

// Deserializes the OptionMarket from the provided data buffer.
// Returns an error if the deserialize operation was unsuccessful.
func (obj *OptionMarket) Unmarshal(data []byte) error {
	if len(data) != OptionMarketSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, optionMarketDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.OptionMint, &offset)
	getKey(data, &obj.WriterTokenMint, &offset)
	getKey(data, &obj.UnderlyingAssetMint, &offset)
	getKey(data, &obj.QuoteAssetMint, &offset)
	getUint64(data, &obj.UnderlyingAmountPerContract, &offset)
	getUint64(data, &obj.QuoteAmountPerContract, &offset)
	getInt64(data, &obj.ExpirationUnixTimestamp, &offset)
	getKey(data, &obj.UnderlyingAssetPool, &offset)
	getKey(data, &obj.QuoteAssetPool, &offset)
	getKey(data, &obj.MintFeeAccount, &offset)
	getKey(data, &obj.ExerciseFeeAccount, &offset)
	getBool(data, &obj.Expired, &offset)
	getUint8(data, &obj.BumpSeed, &offset)

	return nil
}
