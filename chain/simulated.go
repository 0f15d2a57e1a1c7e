package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
)

// Simulated is an environment backed by an in-process simulated chain.
// Every transaction it sends is sealed into its own block right away.
type Simulated struct {
	*Environment

	backend *simulated.Backend
}

// NewSimulated starts a simulated chain whose genesis funds every configured
// account with cfg.Balance. Close it when the test run is over.
func NewSimulated(cfg Config, opts ...Option) (*Simulated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keys, err := loadKeys(cfg)
	if err != nil {
		return nil, err
	}

	balance := cfg.Balance
	if balance == nil {
		balance = DefaultBalance
	}
	alloc := make(types.GenesisAlloc, len(keys))
	for _, key := range keys {
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: new(big.Int).Set(balance)}
	}

	gasLimit := cfg.BlockGasLimit
	if gasLimit == 0 {
		gasLimit = DefaultBlockGasLimit
	}
	backend := simulated.NewBackend(alloc, simulated.WithBlockGasLimit(gasLimit))

	env, err := newEnvironment(context.Background(), backend.Client(), keys, cfg, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	env.seal = backend.Commit
	env.close = backend.Close

	return &Simulated{
		Environment: env,
		backend:     backend,
	}, nil
}

// Backend returns the underlying simulated chain, e.g. to adjust its clock
func (s *Simulated) Backend() *simulated.Backend {
	return s.backend
}
