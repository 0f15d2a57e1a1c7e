// Package chain implements fixturearmy.Environment on top of go-ethereum, either
// as an in-process simulated chain or against a JSON-RPC development node.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tranvictor/fixturearmy"
	"github.com/tranvictor/fixturearmy/artifacts"
	"github.com/tranvictor/fixturearmy/internal/nonce"
)

// Backend is the part of a node client the environment needs.
// Both *ethclient.Client and simulated.Client implement it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// TemplateResolver looks up compiled contracts by name. *artifacts.Registry implements it.
type TemplateResolver interface {
	Resolve(name string) (*fixturearmy.Template, error)
}

// signer is an account the environment holds the key of
type signer struct {
	account fixturearmy.Account
	key     *ecdsa.PrivateKey

	// sendMu keeps nonce reservation and broadcast of one account in order
	sendMu sync.Mutex
}

// Option is a function that configures an Environment
type Option func(*options)

type options struct {
	registry    TemplateResolver
	txMinedHook TxMinedHook
}

// WithRegistry sets the registry templates are resolved from. Without it the
// environment loads Config.ArtifactsDir on first use.
func WithRegistry(registry TemplateResolver) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithTxMinedHook sets a hook called for every transaction the environment sends
func WithTxMinedHook(hook TxMinedHook) Option {
	return func(o *options) {
		o.txMinedHook = hook
	}
}

// Environment manages
//  1. an ordered set of keyed accounts, signing and sending for them
//  2. nonces of those accounts, reserved locally so concurrent sends never collide
//  3. resolution of compiled templates and their deployment
//
// Use NewSimulated or Dial to create one.
type Environment struct {
	backend Backend
	chainID *big.Int

	// seal mines pending transactions; nil when the node mines on its own
	seal   func() common.Hash
	sealMu sync.Mutex

	close func() error

	signers   []*signer
	byAddress map[common.Address]*signer

	nonces *nonce.Tracker

	registryOnce sync.Once
	registry     TemplateResolver
	registryErr  error
	artifactsDir string

	gasBufferPercent float64
	extraGasLimit    uint64
	txMinedHook      TxMinedHook
}

func newEnvironment(ctx context.Context, backend Backend, keys []*ecdsa.PrivateKey, cfg Config, opts ...Option) (*Environment, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't get chain id: %w", err)
	}

	e := &Environment{
		backend:          backend,
		chainID:          chainID,
		byAddress:        make(map[common.Address]*signer, len(keys)),
		nonces:           nonce.NewTracker(),
		registry:         o.registry,
		artifactsDir:     cfg.ArtifactsDir,
		gasBufferPercent: cfg.GasBufferPercent,
		extraGasLimit:    cfg.ExtraGasLimit,
		txMinedHook:      o.txMinedHook,
	}

	for i, key := range keys {
		address := crypto.PubkeyToAddress(key.PublicKey)
		if _, dup := e.byAddress[address]; dup {
			return nil, fmt.Errorf("%w: private key %d duplicates account %s", ErrInvalidConfig, i, address.Hex())
		}
		s := &signer{
			account: fixturearmy.Account{Index: i, Address: address},
			key:     key,
		}
		e.signers = append(e.signers, s)
		e.byAddress[address] = s
	}

	logger.WithFields(logger.Fields{
		"chain_id": chainID.String(),
		"accounts": len(e.signers),
	}).Debug("environment ready")

	return e, nil
}

// ChainID returns the chain id of the environment
func (e *Environment) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

// Client returns the node client the environment sends through
func (e *Environment) Client() Backend {
	return e.backend
}

// Accounts returns the environment's accounts in stable order
func (e *Environment) Accounts(ctx context.Context) ([]fixturearmy.Account, error) {
	accounts := make([]fixturearmy.Account, len(e.signers))
	for i, s := range e.signers {
		accounts[i] = s.account
	}
	return accounts, nil
}

// Account returns the account managed under address
func (e *Environment) Account(address common.Address) (fixturearmy.Account, error) {
	s, ok := e.byAddress[address]
	if !ok {
		return fixturearmy.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address.Hex())
	}
	return s.account, nil
}

// ResolveTemplate looks up a compiled contract by name
func (e *Environment) ResolveTemplate(name string) (*fixturearmy.Template, error) {
	e.registryOnce.Do(func() {
		if e.registry != nil {
			return
		}
		if e.artifactsDir == "" {
			e.registryErr = ErrNoRegistry
			return
		}
		e.registry, e.registryErr = artifacts.Load(os.DirFS(e.artifactsDir), ".")
	})
	if e.registryErr != nil {
		return nil, e.registryErr
	}
	return e.registry.Resolve(name)
}

// Deploy deploys a fresh instance of tmpl from the given account and waits until it is usable
func (e *Environment) Deploy(ctx context.Context, from fixturearmy.Account, tmpl *fixturearmy.Template, args ...any) (fixturearmy.DeployedContract, error) {
	contract, err := e.R().SetFrom(from.Address).Deploy(ctx, tmpl, args...)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Close releases the node connection or stops the simulated chain
func (e *Environment) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// signerFor returns the signer of a managed account
func (e *Environment) signerFor(address common.Address) (*signer, error) {
	if address == (common.Address{}) {
		return nil, ErrFromAddressZero
	}
	s, ok := e.byAddress[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, address.Hex())
	}
	return s, nil
}

// acquireNonce reserves the next nonce of account from the node's view combined with local reservations.
// MUST be called with the account's sendMu held so nonces are broadcast in order.
func (e *Environment) acquireNonce(ctx context.Context, account common.Address) (uint64, error) {
	minedNonce, err := e.backend.NonceAt(ctx, account, nil)
	if err != nil {
		return 0, fmt.Errorf("couldn't get mined nonce: %w", err)
	}
	remotePendingNonce, err := e.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("couldn't get remote pending nonce: %w", err)
	}

	result, err := e.nonces.AcquireNonce(account, minedNonce, remotePendingNonce)
	if err != nil {
		return 0, err
	}
	return result.Nonce, nil
}

// mine seals pending transactions into a block when the backend doesn't mine on its own
func (e *Environment) mine() {
	if e.seal == nil {
		return
	}
	e.sealMu.Lock()
	defer e.sealMu.Unlock()

	hash := e.seal()
	logger.WithFields(logger.Fields{
		"block_hash": hash.Hex(),
	}).Debug("sealed block")
}

var (
	_ fixturearmy.Environment      = (*Environment)(nil)
	_ fixturearmy.Environment      = (*Simulated)(nil)
	_ fixturearmy.Environment      = (*Remote)(nil)
	_ fixturearmy.Snapshotter      = (*Remote)(nil)
	_ fixturearmy.DeployedContract = (*Contract)(nil)
	_ TemplateResolver             = (*artifacts.Registry)(nil)
)
