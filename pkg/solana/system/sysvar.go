package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// RentSysVar points to the system variable "Rent"
//
// Source: https://docs.solana.com/developing/runtime-facilities/sysvars#rent
var RentSysVar ed25519.PublicKey

// ClockSysVar points to the system variable "Clock"
//
// Source: https://docs.solana.com/developing/runtime-facilities/sysvars#clock
var ClockSysVar ed25519.PublicKey

func init() {
	var err error

	RentSysVar, err = base58.Decode("SysvarRent111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	ClockSysVar, err = base58.Decode("SysvarC1ock11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}
