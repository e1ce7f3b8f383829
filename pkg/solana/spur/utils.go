package spur

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// Optional fields are serialized at a fixed width (flag + value) so that
// every account field lives at a stable offset. Program account memcmp
// filters depend on this.
const optionalSize = 1

func putDiscriminator(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:], src)
	*offset += 8
}
func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}

func putKey(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:], src)
	*offset += ed25519.PublicKeySize
}
func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putOptionalKey(dst []byte, src []byte, offset *int) {
	if len(src) > 0 {
		dst[*offset] = 1
		copy(dst[*offset+optionalSize:], src)
	}
	*offset += optionalSize + ed25519.PublicKeySize
}
func getOptionalKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	if src[*offset] == 1 {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[*offset+optionalSize:])
	}
	*offset += optionalSize + ed25519.PublicKeySize
}

func putUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}
func getUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

func putBool(dst []byte, v bool, offset *int) {
	if v {
		dst[*offset] = 1
	}
	*offset += 1
}
func getBool(src []byte, dst *bool, offset *int) {
	*dst = src[*offset] == 1
	*offset += 1
}

func putUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}
func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func putInt64(dst []byte, v int64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], uint64(v))
	*offset += 8
}
func getInt64(src []byte, dst *int64, offset *int) {
	*dst = int64(binary.LittleEndian.Uint64(src[*offset:]))
	*offset += 8
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
