package fixturearmy

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Account is an identity the environment can sign and send transactions with.
// Index is its position in the environment's ordered account list.
type Account struct {
	Index   int
	Address common.Address
}

// Template is a compiled contract definition that can be deployed by name
type Template struct {
	// Name is the contract name, e.g. "External"
	Name string
	// SourceName is the source file the contract was compiled from, e.g. "contracts/External.sol"
	SourceName string
	ABI        abi.ABI
	Bytecode   []byte
}

// FullyQualifiedName returns "SourceName:Name", or Name when the source is unknown
func (t *Template) FullyQualifiedName() string {
	if t.SourceName == "" {
		return t.Name
	}
	return t.SourceName + ":" + t.Name
}

// DeployedContract is a live contract instance owned by the test run that deployed it
type DeployedContract interface {
	// Name returns the name of the template the contract was deployed from
	Name() string
	// Address returns the address the contract lives at
	Address() common.Address
	// DeployTransaction returns the transaction that created the contract
	DeployTransaction() *types.Transaction
	// Call invokes a read-only method and returns its unpacked outputs
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	// Transact sends a state-changing call from the given account and waits for it to be mined
	Transact(ctx context.Context, from Account, method string, args ...any) (*types.Receipt, error)
}

// Environment provides accounts and deployments to the fixture.
// It is created and torn down by the surrounding test harness.
type Environment interface {
	// Accounts returns every account the environment can sign with, in stable order
	Accounts(ctx context.Context) ([]Account, error)
	// ResolveTemplate looks up a compiled contract by name
	ResolveTemplate(name string) (*Template, error)
	// Deploy creates a fresh instance of tmpl sent by from, returning once the
	// instance is usable
	Deploy(ctx context.Context, from Account, tmpl *Template, args ...any) (DeployedContract, error)
}

// Snapshotter is implemented by environments that can save and restore chain state
type Snapshotter interface {
	// Snapshot saves the current chain state and returns an id to revert to
	Snapshot(ctx context.Context) (string, error)
	// Revert restores the state saved under id. The id is consumed.
	Revert(ctx context.Context, id string) error
}
