package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ============================================================
// Test Addresses
// ============================================================

var (
	// TestAddr1 is a common test address
	TestAddr1 = common.HexToAddress("0x1111111111111111111111111111111111111111")
	// TestAddr2 is a common test address
	TestAddr2 = common.HexToAddress("0x2222222222222222222222222222222222222222")
	// TestAddr3 is an additional test address
	TestAddr3 = common.HexToAddress("0x3333333333333333333333333333333333333333")
	// TestAddr4 is an additional test address
	TestAddr4 = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

// ============================================================
// Test Private Keys
// ============================================================

var (
	// TestPrivateKeyHex is a test private key in hex format
	TestPrivateKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	// TestPrivateKey1 is a parsed ECDSA private key for testing
	TestPrivateKey1, _ = crypto.HexToECDSA(TestPrivateKeyHex)
	// TestPrivateKey1Address is the address derived from TestPrivateKey1
	TestPrivateKey1Address = crypto.PubkeyToAddress(TestPrivateKey1.PublicKey)
)

// ============================================================
// Common Values
// ============================================================

var (
	// OneEth represents 1 ETH in wei
	OneEth = big.NewInt(1000000000000000000)
	// TenThousandEth is the balance dev nodes fund their accounts with
	TenThousandEth = new(big.Int).Mul(big.NewInt(10000), OneEth)
)

// ============================================================
// Stub Contracts
// ============================================================

// StubABI describes the stub contracts: value() returns the constant the
// contract was assembled with, poke() is a no-op transaction target.
const StubABI = `[
	{"inputs":[],"name":"value","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"poke","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// Constants returned by value() on each stub template
const (
	DelegationStubValue = 1
	ExternalStubValue   = 2
	VulnStubValue       = 3
)

// RevertingBytecode is init code that always reverts (PUSH1 0 PUSH1 0 REVERT)
const RevertingBytecode = "0x60006000fd"

// StubBytecode returns hand-assembled init code deploying a 10 byte runtime
// that answers every call with value as a 32 byte word:
//
//	init:    PUSH1 0x0a PUSH1 0x0c PUSH1 0 CODECOPY PUSH1 0x0a PUSH1 0 RETURN
//	runtime: PUSH1 value PUSH1 0 MSTORE PUSH1 0x20 PUSH1 0 RETURN
func StubBytecode(value byte) string {
	return "0x600a600c600039600a6000f3" + "60" + common.Bytes2Hex([]byte{value}) + "60005260206000f3"
}
