package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/onchainid"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

var (
	claimIdentity  string
	claimTopic     string
	claimData      string
	claimKeyRole   string
	claimSignature string
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Sign and check identity claims",
	Long: `A claim signature covers keccak256(abi.encode(identity, topic, data)) as
an EIP-191 personal message. --topic takes a topic name (hashed with
keccak256) or a decimal topic number; --data takes text or 0x-prefixed hex.
Both default to the configured claim.`,
}

var claimSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a claim for an identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := claimFromFlags()
		if err != nil {
			return err
		}

		var key *ecdsa.PrivateKey
		if claimKeyRole != "" {
			hexKey, err := openKeystore(cfg.Dir()).Retrieve(claimKeyRole)
			if err != nil {
				return err
			}
			s, err := wallet.KeySignerFromHex(hexKey)
			if err != nil {
				return err
			}
			key = s.Key()
		} else {
			if key, err = crypto.GenerateKey(); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Warn("No --key given: signed with a generated key that is not stored"))
		}

		sig, err := onchainid.SignClaim(key, c)
		if err != nil {
			return err
		}
		digest, _ := c.Digest()
		signer := crypto.PubkeyToAddress(key.PublicKey)
		fmt.Fprintln(out, ui.KeyValueBlock("Claim", [][2]string{
			{"Identity", c.Identity.Hex()},
			{"Topic", c.Topic.String()},
			{"Data", hexutil.Encode(c.Data)},
			{"Digest", digest.Hex()},
			{"Signer", signer.Hex()},
			{"Signer key hash", onchainid.KeyHash(signer).Hex()},
		}))
		fmt.Fprintln(out, hexutil.Encode(sig))
		return nil
	},
}

var claimVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recover the signer of a claim signature",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := claimFromFlags()
		if err != nil {
			return err
		}
		if c.Signature, err = hexutil.Decode(claimSignature); err != nil {
			return fmt.Errorf("invalid --signature: %w", err)
		}
		signer, err := onchainid.RecoverClaimSigner(c)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Claim signer", [][2]string{
			{"Signer", signer.Hex()},
			{"Key hash", onchainid.KeyHash(signer).Hex()},
			{"Key purpose needed", onchainid.PurposeName(onchainid.PurposeClaim)},
		}))
		fmt.Fprintln(out, ui.Hint("The issuer's identity must hold this key hash with the CLAIM purpose"))
		return nil
	},
}

func claimFromFlags() (*onchainid.Claim, error) {
	if !common.IsHexAddress(claimIdentity) {
		return nil, fmt.Errorf("invalid --identity %q", claimIdentity)
	}
	topic := claimTopic
	if topic == "" {
		topic = cfg.Claim.Topic
	}
	data := claimData
	if data == "" {
		data = cfg.Claim.Data
	}
	c := &onchainid.Claim{
		Identity: common.HexToAddress(claimIdentity),
		Topic:    parseTopic(topic),
		Scheme:   cfg.Claim.Scheme,
		Data:     []byte(data),
	}
	if strings.HasPrefix(data, "0x") {
		raw, err := hexutil.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
		c.Data = raw
	}
	return c, nil
}

// parseTopic accepts a decimal topic number or a topic name.
func parseTopic(s string) *big.Int {
	if n, ok := new(big.Int).SetString(s, 10); ok && n.Sign() >= 0 {
		return n
	}
	return onchainid.Topic(s)
}

func init() {
	for _, c := range []*cobra.Command{claimSignCmd, claimVerifyCmd} {
		c.Flags().StringVar(&claimIdentity, "identity", "", "identity contract address the claim is about")
		c.Flags().StringVar(&claimTopic, "topic", "", "claim topic name or number (default: config claim.topic)")
		c.Flags().StringVar(&claimData, "data", "", "claim data, text or 0x hex (default: config claim.data)")
		_ = c.MarkFlagRequired("identity")
	}
	claimSignCmd.Flags().StringVar(&claimKeyRole, "key", "", "keystore role whose key signs (default: a generated key)")
	claimVerifyCmd.Flags().StringVar(&claimSignature, "signature", "", "0x-prefixed 65-byte signature")
	_ = claimVerifyCmd.MarkFlagRequired("signature")
	claimCmd.AddCommand(claimSignCmd, claimVerifyCmd)
}
