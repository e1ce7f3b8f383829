package spur

import (
	"crypto/ed25519"

	"github.com/spur-grants/grant-server/pkg/solana"
)

var grantPdaSeed = []byte("grant")

// GetAuthorityAddress derives the program authority that signs for every
// grant escrow. The derivation has a single literal seed, so the same
// program id always yields the same (address, bump) pair.
func GetAuthorityAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		grantPdaSeed,
	)
}
