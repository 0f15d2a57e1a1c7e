package chain

import "github.com/ethereum/go-ethereum/core/types"

// TxMinedHook is called when a transaction is mined (either successfully or reverted).
// The receipt contains the transaction result including status.
// Return an error to propagate it to the caller.
type TxMinedHook func(tx *types.Transaction, receipt *types.Receipt) error
