package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/fixturearmy"
)

// Contract is a deployed contract instance bound to the environment that deployed it
type Contract struct {
	env *Environment

	name     string
	address  common.Address
	abi      abi.ABI
	deployTx *types.Transaction
	receipt  *types.Receipt

	bound *bind.BoundContract
}

func newContract(env *Environment, tmpl *fixturearmy.Template, address common.Address, tx *types.Transaction, receipt *types.Receipt) *Contract {
	return &Contract{
		env:      env,
		name:     tmpl.Name,
		address:  address,
		abi:      tmpl.ABI,
		deployTx: tx,
		receipt:  receipt,
		bound:    bind.NewBoundContract(address, tmpl.ABI, env.backend, env.backend, env.backend),
	}
}

func (c *Contract) Name() string                          { return c.name }
func (c *Contract) Address() common.Address               { return c.address }
func (c *Contract) ABI() abi.ABI                          { return c.abi }
func (c *Contract) DeployTransaction() *types.Transaction { return c.deployTx }
func (c *Contract) DeployReceipt() *types.Receipt         { return c.receipt }
func (c *Contract) BoundContract() *bind.BoundContract    { return c.bound }

// Call invokes a read-only method at the latest block and returns its unpacked outputs
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, describeCallError(err)
	}
	return out, nil
}

// Transact sends a state-changing call from the given account and waits for it to be mined
func (c *Contract) Transact(ctx context.Context, from fixturearmy.Account, method string, args ...any) (*types.Receipt, error) {
	_, receipt, err := c.env.R().SetFrom(from.Address).Transact(ctx, c, method, args...)
	return receipt, err
}
