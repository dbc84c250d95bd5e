package types

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

// Payment is a single record of the payment feed. AmountMsat is in the
// feed's base unit (millisatoshi); outgoing payments are negative.
type Payment struct {
	ID         string    `json:"checkingID"`
	AmountMsat int64     `json:"amountMsat"`
	Pending    bool      `json:"pending"`
	Memo       string    `json:"memo"`
	Time       time.Time `json:"time"`
}

// Amount returns the payment amount truncated to whole satoshis.
func (p Payment) Amount() btcutil.Amount {
	return btcutil.Amount(p.AmountMsat / 1000)
}
