package config

import "time"

// Account sources for a network profile.
const (
	AccountsNode     = "node"     // eth_accounts + eth_sendTransaction (Hardhat, Anvil)
	AccountsKeystore = "keystore" // private keys from the OS keychain
)

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitDeploy       = uint64(6_000_000)
	GasLimitContractCall = uint64(500_000)
)

// Timeout constants used across cmd and the orchestration packages.
const (
	RPCSelectTimeout = 10 * time.Second
	TxConfirmTimeout = 3 * time.Minute
	TxDeployTimeout  = 5 * time.Minute
	ReceiptPoll      = 500 * time.Millisecond
)
