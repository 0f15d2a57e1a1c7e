package chain

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveKeys derives n private keys from seed. The i-th key is
// keccak256(seed || uint32be(i)), so the same seed always yields the same
// ordered accounts.
func DeriveKeys(seed string, n int) ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		var index [4]byte
		binary.BigEndian.PutUint32(index[:], uint32(i))
		key, err := crypto.ToECDSA(crypto.Keccak256([]byte(seed), index[:]))
		if err != nil {
			return nil, fmt.Errorf("couldn't derive key %d from seed: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ParseKeys parses hex encoded private keys, with or without 0x prefix
func ParseKeys(hexKeys []string) ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for i, hexKey := range hexKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("private key %d: %w", i, err))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// loadKeys returns the configured private keys, or derives cfg.Accounts keys from cfg.Seed
func loadKeys(cfg Config) ([]*ecdsa.PrivateKey, error) {
	if len(cfg.PrivateKeys) > 0 {
		return ParseKeys(cfg.PrivateKeys)
	}
	return DeriveKeys(cfg.Seed, cfg.Accounts)
}
