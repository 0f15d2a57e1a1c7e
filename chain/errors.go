package chain

import "fmt"

// Environment errors
var (
	ErrNoAccounts       = fmt.Errorf("environment has no accounts")
	ErrUnknownAccount   = fmt.Errorf("account is not managed by this environment")
	ErrFromAddressZero  = fmt.Errorf("from address cannot be zero")
	ErrEstimateGas      = fmt.Errorf("estimate gas failed")
	ErrAcquireNonce     = fmt.Errorf("acquire nonce failed")
	ErrTxReverted       = fmt.Errorf("transaction reverted")
	ErrNoRegistry       = fmt.Errorf("environment has no template registry")
	ErrSnapshotFailed   = fmt.Errorf("couldn't snapshot chain state")
	ErrRevertFailed     = fmt.Errorf("couldn't revert chain state")
	ErrInvalidConfig    = fmt.Errorf("invalid environment config")
	ErrTemplateNil      = fmt.Errorf("template cannot be nil")
	ErrContractNotBound = fmt.Errorf("contract is not bound to this environment")
)
