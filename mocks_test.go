package fixturearmy

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ============================================================
// Fake Environment
// ============================================================

type fakeContract struct {
	name    string
	address common.Address
	from    Account
}

func (c *fakeContract) Name() string                          { return c.name }
func (c *fakeContract) Address() common.Address               { return c.address }
func (c *fakeContract) DeployTransaction() *types.Transaction { return nil }
func (c *fakeContract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	return nil, nil
}
func (c *fakeContract) Transact(ctx context.Context, from Account, method string, args ...any) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

// fakeEnv hands out sequential contract addresses and records every deployment
type fakeEnv struct {
	mu sync.Mutex

	accounts    []Account
	accountsErr error
	templates   map[string]*Template

	// deployErrs fails deployments of a template by name
	deployErrs map[string]error
	// nilContracts makes deployments of a template return no contract
	nilContracts map[string]bool
	// fixedAddress makes every deployment land on the same address
	fixedAddress *common.Address

	deployed []*fakeContract
	next     uint64
}

func newFakeEnv(numAccounts int) *fakeEnv {
	env := &fakeEnv{
		templates:    make(map[string]*Template),
		deployErrs:   make(map[string]error),
		nilContracts: make(map[string]bool),
	}
	for i := 0; i < numAccounts; i++ {
		env.accounts = append(env.accounts, Account{
			Index:   i,
			Address: common.BigToAddress(big.NewInt(int64(0xa000 + i))),
		})
	}
	for _, name := range []string{DelegationTemplate, ExternalTemplate, VulnTemplate} {
		env.templates[name] = &Template{Name: name, SourceName: "contracts/" + name + ".sol"}
	}
	return env
}

func (e *fakeEnv) Accounts(ctx context.Context) ([]Account, error) {
	if e.accountsErr != nil {
		return nil, e.accountsErr
	}
	return append([]Account(nil), e.accounts...), nil
}

func (e *fakeEnv) ResolveTemplate(name string) (*Template, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("no artifact for %s", name)
	}
	return tmpl, nil
}

func (e *fakeEnv) Deploy(ctx context.Context, from Account, tmpl *Template, args ...any) (DeployedContract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.deployErrs[tmpl.Name]; err != nil {
		return nil, err
	}
	if e.nilContracts[tmpl.Name] {
		return nil, nil
	}

	e.next++
	address := common.BigToAddress(new(big.Int).SetUint64(0xc000 + e.next))
	if e.fixedAddress != nil {
		address = *e.fixedAddress
	}
	c := &fakeContract{name: tmpl.Name, address: address, from: from}
	e.deployed = append(e.deployed, c)
	return c, nil
}

func (e *fakeEnv) deployCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.deployed)
}

// snapshotEnv adds evm_snapshot style snapshots to fakeEnv
type snapshotEnv struct {
	*fakeEnv

	snapshots   []string
	reverts     []string
	revertErr   error
	snapshotErr error
}

func (e *snapshotEnv) Snapshot(ctx context.Context) (string, error) {
	if e.snapshotErr != nil {
		return "", e.snapshotErr
	}
	id := "0x" + strconv.Itoa(len(e.snapshots)+1)
	e.snapshots = append(e.snapshots, id)
	return id, nil
}

func (e *snapshotEnv) Revert(ctx context.Context, id string) error {
	if e.revertErr != nil {
		return e.revertErr
	}
	e.reverts = append(e.reverts, id)
	return nil
}
