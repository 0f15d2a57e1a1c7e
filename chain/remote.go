package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Remote is an environment backed by a JSON-RPC development node that mines
// transactions on its own (Hardhat node, anvil). It signs locally with the
// configured private keys.
type Remote struct {
	*Environment

	client *rpc.Client
}

// Dial connects to the node at url
func Dial(ctx context.Context, url string, cfg Config, opts ...Option) (*Remote, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("couldn't dial %s: %w", url, err)
	}
	remote, err := NewRemote(ctx, client, cfg, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	return remote, nil
}

// NewRemote creates an environment on an existing RPC client. Closing the
// environment closes the client.
func NewRemote(ctx context.Context, client *rpc.Client, cfg Config, opts ...Option) (*Remote, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.PrivateKeys) == 0 {
		return nil, fmt.Errorf("%w: remote environments need private keys", ErrNoAccounts)
	}

	keys, err := ParseKeys(cfg.PrivateKeys)
	if err != nil {
		return nil, err
	}

	env, err := newEnvironment(ctx, ethclient.NewClient(client), keys, cfg, opts...)
	if err != nil {
		return nil, err
	}
	env.close = func() error {
		client.Close()
		return nil
	}

	return &Remote{
		Environment: env,
		client:      client,
	}, nil
}

// Snapshot saves the node's state with evm_snapshot
func (r *Remote) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := r.client.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", errors.Join(ErrSnapshotFailed, err)
	}
	logger.WithFields(logger.Fields{
		"snapshot": id,
	}).Debug("chain state snapshotted")
	return id, nil
}

// Revert restores the state saved under id with evm_revert. The node drops
// the snapshot, so take a new one to revert again.
func (r *Remote) Revert(ctx context.Context, id string) error {
	var reverted bool
	if err := r.client.CallContext(ctx, &reverted, "evm_revert", id); err != nil {
		return errors.Join(ErrRevertFailed, err)
	}
	if !reverted {
		return fmt.Errorf("%w: node has no snapshot %s", ErrRevertFailed, id)
	}

	// nonces handed out after the snapshot no longer exist on chain
	r.nonces.Reset()

	logger.WithFields(logger.Fields{
		"snapshot": id,
	}).Debug("chain state reverted")
	return nil
}
