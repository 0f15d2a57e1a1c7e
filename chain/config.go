package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/tailscale/hujson"
)

// Defaults mirror a fresh Hardhat network
const (
	DefaultAccounts      = 20
	DefaultBlockGasLimit = 30_000_000
	DefaultSeed          = "fixturearmy"
	DefaultArtifactsDir  = "artifacts"
)

// DefaultBalance is the balance every simulated account starts with: 10000 ETH
var DefaultBalance = new(big.Int).Mul(big.NewInt(10000), big.NewInt(1_000_000_000_000_000_000))

// Config describes the accounts and gas settings of an environment
type Config struct {
	// Accounts is the number of accounts a simulated chain creates.
	// Ignored when PrivateKeys is set.
	Accounts int
	// Balance is the genesis balance of every simulated account, in wei
	Balance *big.Int
	// Seed derives the simulated account keys deterministically
	Seed string
	// PrivateKeys are hex encoded account keys. They are required for remote
	// environments and replace derived keys on simulated ones.
	PrivateKeys []string

	// BlockGasLimit is the gas limit of simulated blocks
	BlockGasLimit uint64
	// GasBufferPercent is added on top of estimated gas, 0.2 means 20%
	GasBufferPercent float64
	// ExtraGasLimit is added after the buffer
	ExtraGasLimit uint64

	// ArtifactsDir is where compiled artifacts are loaded from when no
	// registry is given
	ArtifactsDir string
}

// DefaultConfig returns the configuration of a fresh Hardhat-like network
func DefaultConfig() Config {
	return Config{
		Accounts:      DefaultAccounts,
		Balance:       new(big.Int).Set(DefaultBalance),
		Seed:          DefaultSeed,
		BlockGasLimit: DefaultBlockGasLimit,
		ArtifactsDir:  DefaultArtifactsDir,
	}
}

// fileConfig is the on-disk form of Config. Unset fields keep their defaults.
type fileConfig struct {
	Accounts         *int     `json:"accounts"`
	Balance          *string  `json:"balance"`
	Seed             *string  `json:"seed"`
	PrivateKeys      []string `json:"privateKeys"`
	BlockGasLimit    *uint64  `json:"blockGasLimit"`
	GasBufferPercent *float64 `json:"gasBufferPercent"`
	ExtraGasLimit    *uint64  `json:"extraGasLimit"`
	ArtifactsDir     *string  `json:"artifactsDir"`
}

// LoadConfig reads a config file on top of DefaultConfig. The file is JSON
// with comments and trailing commas allowed (HuJSON).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("couldn't read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses HuJSON config data on top of DefaultConfig
func ParseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()
	if fc.Accounts != nil {
		cfg.Accounts = *fc.Accounts
	}
	if fc.Balance != nil {
		balance, ok := new(big.Int).SetString(*fc.Balance, 0)
		if !ok {
			return Config{}, fmt.Errorf("%w: balance %q is not an integer", ErrInvalidConfig, *fc.Balance)
		}
		cfg.Balance = balance
	}
	if fc.Seed != nil {
		cfg.Seed = *fc.Seed
	}
	if fc.PrivateKeys != nil {
		cfg.PrivateKeys = fc.PrivateKeys
	}
	if fc.BlockGasLimit != nil {
		cfg.BlockGasLimit = *fc.BlockGasLimit
	}
	if fc.GasBufferPercent != nil {
		cfg.GasBufferPercent = *fc.GasBufferPercent
	}
	if fc.ExtraGasLimit != nil {
		cfg.ExtraGasLimit = *fc.ExtraGasLimit
	}
	if fc.ArtifactsDir != nil {
		cfg.ArtifactsDir = *fc.ArtifactsDir
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config for values no environment can work with
func (c Config) Validate() error {
	if c.Accounts < 0 {
		return fmt.Errorf("%w: accounts must not be negative, got %d", ErrInvalidConfig, c.Accounts)
	}
	if c.Balance != nil && c.Balance.Sign() < 0 {
		return fmt.Errorf("%w: balance must not be negative", ErrInvalidConfig)
	}
	if c.GasBufferPercent < 0 {
		return fmt.Errorf("%w: gas buffer must not be negative, got %v", ErrInvalidConfig, c.GasBufferPercent)
	}
	return nil
}
