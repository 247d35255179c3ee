// Package onchainid holds the off-chain half of the ONCHAINID standard: key
// hashes, key purposes and claim signatures.
package onchainid

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key purposes.
const (
	PurposeManagement uint64 = 1
	PurposeAction     uint64 = 2
	PurposeClaim      uint64 = 3
)

// KeyTypeECDSA is the only key type the suite uses.
const KeyTypeECDSA uint64 = 1

// KeyHash returns keccak256(abi.encode(addr)), the identifier identities store
// keys under.
func KeyHash(addr common.Address) common.Hash {
	return crypto.Keccak256Hash(common.LeftPadBytes(addr.Bytes(), 32))
}

// Topic hashes a claim topic name: keccak256(utf8(name)).
func Topic(name string) *big.Int {
	return crypto.Keccak256Hash([]byte(name)).Big()
}

// PurposeName returns a printable name for a key purpose.
func PurposeName(p uint64) string {
	switch p {
	case PurposeManagement:
		return "MANAGEMENT"
	case PurposeAction:
		return "ACTION"
	case PurposeClaim:
		return "CLAIM"
	}
	return "UNKNOWN"
}
