package wallet

import (
	"math/big"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
)

// Entry is one payment leg. Amount must be non-negative.
type Entry struct {
	From   domain.Address
	To     domain.Address
	Amount *big.Int
	Memo   string
}

// Ledger is the payment rail the settlement engine disburses through. Apply
// is all-or-nothing: either every entry is applied or none is, so a caller
// never observes a partial payout.
type Ledger interface {
	Deposit(ctx ctx.Ctx, account domain.Address, amount *big.Int) error
	Withdraw(ctx ctx.Ctx, account domain.Address, amount *big.Int) error
	BalanceOf(ctx ctx.Ctx, account domain.Address) (*big.Int, error)
	Apply(ctx ctx.Ctx, entries ...Entry) error
}

// Reverse returns the compensating batch for entries, used to undo a payment
// batch when a later settlement step fails.
func Reverse(entries []Entry) []Entry {
	rev := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		rev = append(rev, Entry{From: e.To, To: e.From, Amount: e.Amount, Memo: "undo " + e.Memo})
	}
	return rev
}
