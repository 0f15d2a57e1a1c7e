package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tranvictor/fixturearmy"
)

// TxRequest represents a transaction request with builder pattern
type TxRequest struct {
	env *Environment

	from             common.Address
	value            *big.Int
	gasLimit         uint64
	extraGasLimit    uint64
	gasBufferPercent float64

	txMinedHook TxMinedHook
}

// R creates a new transaction request (similar to go-resty's R() method).
// The request inherits gas settings from the environment's config and is sent
// from the first account unless SetFrom is called.
func (e *Environment) R() *TxRequest {
	r := &TxRequest{
		env:              e,
		value:            big.NewInt(0),
		extraGasLimit:    e.extraGasLimit,
		gasBufferPercent: e.gasBufferPercent,
		txMinedHook:      e.txMinedHook,
	}
	if len(e.signers) > 0 {
		r.from = e.signers[0].account.Address
	}
	return r
}

// SetFrom sets the sending account
func (r *TxRequest) SetFrom(from common.Address) *TxRequest {
	r.from = from
	return r
}

// SetValue sets the wei sent along with the transaction
func (r *TxRequest) SetValue(value *big.Int) *TxRequest {
	if value != nil {
		r.value = value
	}
	return r
}

// SetGasLimit sets the gas limit, skipping estimation
func (r *TxRequest) SetGasLimit(gasLimit uint64) *TxRequest {
	r.gasLimit = gasLimit
	return r
}

// SetExtraGasLimit sets the gas added on top of the (estimated) limit
func (r *TxRequest) SetExtraGasLimit(extraGasLimit uint64) *TxRequest {
	r.extraGasLimit = extraGasLimit
	return r
}

// SetGasBufferPercent sets the share of estimated gas added as buffer, 0.2 means 20%
func (r *TxRequest) SetGasBufferPercent(percent float64) *TxRequest {
	r.gasBufferPercent = percent
	return r
}

// SetTxMinedHook sets the hook to be called when the transaction is mined.
// This hook is called for both successful and reverted transactions.
func (r *TxRequest) SetTxMinedHook(hook TxMinedHook) *TxRequest {
	r.txMinedHook = hook
	return r
}

// Deploy deploys a fresh instance of tmpl with the given constructor arguments
// and returns it once its code is on chain.
func (r *TxRequest) Deploy(ctx context.Context, tmpl *fixturearmy.Template, args ...any) (*Contract, error) {
	if tmpl == nil {
		return nil, ErrTemplateNil
	}

	input, err := tmpl.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't pack constructor arguments of %s: %w", tmpl.Name, err)
	}
	data := append(common.CopyBytes(tmpl.Bytecode), input...)

	tx, receipt, err := r.send(ctx, nil, data, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		_, tx, _, err := bind.DeployContract(opts, tmpl.ABI, tmpl.Bytecode, r.env.backend, args...)
		return tx, err
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't deploy %s: %w", tmpl.Name, err)
	}

	code, err := r.env.backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't read code of %s at %s: %w", tmpl.Name, receipt.ContractAddress.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", tmpl.Name, receipt.ContractAddress.Hex(), bind.ErrNoCodeAfterDeploy)
	}

	logger.WithFields(logger.Fields{
		"template": tmpl.FullyQualifiedName(),
		"address":  receipt.ContractAddress.Hex(),
		"from":     r.from.Hex(),
		"tx_hash":  tx.Hash().Hex(),
		"nonce":    tx.Nonce(),
		"gas_used": receipt.GasUsed,
	}).Debug("contract deployed")

	return newContract(r.env, tmpl, receipt.ContractAddress, tx, receipt), nil
}

// Transact calls a state-changing method of contract and waits for it to be mined
func (r *TxRequest) Transact(ctx context.Context, contract *Contract, method string, args ...any) (*types.Transaction, *types.Receipt, error) {
	if contract == nil || contract.env != r.env {
		return nil, nil, ErrContractNotBound
	}

	input, err := contract.abi.Pack(method, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't pack %s.%s arguments: %w", contract.name, method, err)
	}
	to := contract.address

	return r.send(ctx, &to, input, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.bound.Transact(opts, method, args...)
	})
}

// send estimates gas, reserves a nonce, broadcasts the transaction built by
// build and waits for it to be mined. The nonce is given back if broadcasting fails.
func (r *TxRequest) send(
	ctx context.Context,
	to *common.Address,
	data []byte,
	build func(opts *bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, *types.Receipt, error) {
	s, err := r.env.signerFor(r.from)
	if err != nil {
		return nil, nil, err
	}

	gasLimit := r.gasLimit
	if gasLimit == 0 {
		estimated, err := r.env.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  r.from,
			To:    to,
			Value: r.value,
			Data:  data,
		})
		if err != nil {
			return nil, nil, errors.Join(ErrEstimateGas, describeCallError(err))
		}
		// apply the buffer before the extra gas
		gasLimit = estimated + uint64(float64(estimated)*r.gasBufferPercent)
	}
	gasLimit += r.extraGasLimit

	opts, err := bind.NewKeyedTransactorWithChainID(s.key, r.env.chainID)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = r.value
	opts.GasLimit = gasLimit

	s.sendMu.Lock()
	nonce, err := r.env.acquireNonce(ctx, r.from)
	if err != nil {
		s.sendMu.Unlock()
		return nil, nil, errors.Join(ErrAcquireNonce, err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)

	tx, err := build(opts)
	if err != nil {
		// never broadcast, the nonce can be reused
		r.env.nonces.ReleaseNonce(r.from, nonce)
		s.sendMu.Unlock()
		return nil, nil, describeCallError(err)
	}
	s.sendMu.Unlock()

	logger.WithFields(logger.Fields{
		"tx_hash":   tx.Hash().Hex(),
		"from":      r.from.Hex(),
		"nonce":     nonce,
		"gas_limit": gasLimit,
	}).Debug("transaction broadcasted")

	r.env.mine()

	receipt, err := bind.WaitMined(ctx, r.env.backend, tx)
	if err != nil {
		return tx, nil, fmt.Errorf("couldn't wait for tx %s to be mined: %w", tx.Hash().Hex(), err)
	}

	if r.txMinedHook != nil {
		if err := r.txMinedHook(tx, receipt); err != nil {
			return tx, receipt, err
		}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.WithFields(logger.Fields{
			"tx_hash":  tx.Hash().Hex(),
			"from":     r.from.Hex(),
			"gas_used": receipt.GasUsed,
			"block":    receipt.BlockNumber.String(),
		}).Warn("transaction reverted")
		return tx, receipt, fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex())
	}

	return tx, receipt, nil
}

// describeCallError attaches the revert data a node returned, if any
func describeCallError(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return fmt.Errorf("%w (revert data: %v)", err, dataErr.ErrorData())
	}
	return err
}
