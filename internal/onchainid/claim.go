package onchainid

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// ErrBadSignature is returned for signatures that do not recover a signer.
var ErrBadSignature = errors.New("bad claim signature")

// Claim is an issuer's attestation about an identity.
type Claim struct {
	Identity  common.Address
	Issuer    common.Address
	Topic     *big.Int
	Scheme    uint64
	Data      []byte
	Signature []byte
	URI       string
}

var claimArgs = func() abi.Arguments {
	addressT, _ := abi.NewType("address", "", nil)
	uintT, _ := abi.NewType("uint256", "", nil)
	bytesT, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{{Type: addressT}, {Type: uintT}, {Type: bytesT}}
}()

// Digest is keccak256(abi.encode(identity, topic, data)), the value issuers sign.
func (c *Claim) Digest() (common.Hash, error) {
	if c.Topic == nil {
		return common.Hash{}, fmt.Errorf("claim has no topic")
	}
	packed, err := claimArgs.Pack(c.Identity, c.Topic, c.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding claim: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

// SignClaim signs the claim digest as an EIP-191 personal message and stores
// the signature on c. The recovery id is 27 or 28.
func SignClaim(key *ecdsa.PrivateKey, c *Claim) ([]byte, error) {
	digest, err := c.Digest()
	if err != nil {
		return nil, err
	}
	sig, err := wallet.SignMessage(key, digest.Bytes())
	if err != nil {
		return nil, err
	}
	c.Signature = sig
	return sig, nil
}

// RecoverClaimSigner returns the address that produced c.Signature.
func RecoverClaimSigner(c *Claim) (common.Address, error) {
	digest, err := c.Digest()
	if err != nil {
		return common.Address{}, err
	}
	addr, err := wallet.VerifyMessage(digest.Bytes(), c.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return addr, nil
}
