package models

import (
	iwallet "github.com/cpacia/wallet-interface"
	"math/big"
)

// PendingTransfer is an inbound send block that the watched account has
// not yet received. It is only valid for the query that returned it as
// the node may receive or reorder pending blocks at any time.
type PendingTransfer struct {
	BlockID string
	Source  string
	Amount  iwallet.Amount
}

// AccountBalance holds the confirmed balance of an account along with
// the sum of its pending (unreceived) blocks. Both values are in raw.
type AccountBalance struct {
	Account string
	Balance iwallet.Amount
	Pending iwallet.Amount
}

// ParseTransferAmount converts a raw amount into an Amount. It returns
// false if the value is not a base 10 integer.
func ParseTransferAmount(value string) (iwallet.Amount, bool) {
	i, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return iwallet.Amount{}, false
	}
	return iwallet.NewAmount(i), true
}
