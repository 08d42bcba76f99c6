package repository

import (
	"math/big"
	"sync"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/wallet"
)

// inMemoryLedger is the authoritative balance book. All mutation happens
// under one mutex so a batch is never observed half-applied.
type inMemoryLedger struct {
	mu       sync.Mutex
	balances map[domain.Address]*big.Int
}

func NewInMemoryLedger() wallet.Ledger {
	return &inMemoryLedger{
		balances: map[domain.Address]*big.Int{},
	}
}

func (im *inMemoryLedger) balanceOf(account domain.Address) *big.Int {
	if b, ok := im.balances[account.ToLower()]; ok {
		return b
	}
	return domain.Big0
}

func (im *inMemoryLedger) Deposit(ctx bCtx.Ctx, account domain.Address, amount *big.Int) error {
	if account.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidNumberFormat
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.balances[account.ToLower()] = new(big.Int).Add(im.balanceOf(account), amount)
	return nil
}

func (im *inMemoryLedger) Withdraw(ctx bCtx.Ctx, account domain.Address, amount *big.Int) error {
	if account.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidNumberFormat
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	balance := im.balanceOf(account)
	if balance.Cmp(amount) < 0 {
		ctx.WithFields(log.Fields{
			"account": account,
			"balance": balance.String(),
			"amount":  amount.String(),
		}).Warn("withdraw exceeds balance")
		return domain.ErrInsufficientFunds
	}
	im.balances[account.ToLower()] = new(big.Int).Sub(balance, amount)
	return nil
}

func (im *inMemoryLedger) BalanceOf(ctx bCtx.Ctx, account domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return new(big.Int).Set(im.balanceOf(account)), nil
}

// Apply moves every entry or none. Debits are validated against the staged
// balances first, so an entry may spend funds credited by an earlier entry of
// the same batch.
func (im *inMemoryLedger) Apply(ctx bCtx.Ctx, entries ...wallet.Entry) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	staged := map[domain.Address]*big.Int{}
	get := func(account domain.Address) *big.Int {
		if b, ok := staged[account.ToLower()]; ok {
			return b
		}
		return im.balanceOf(account)
	}

	for _, e := range entries {
		if e.From.IsEmpty() || e.To.IsEmpty() {
			return domain.ErrInvalidAddress
		}
		if e.Amount == nil || e.Amount.Sign() < 0 {
			return domain.ErrInvalidNumberFormat
		}

		from := get(e.From)
		if from.Cmp(e.Amount) < 0 {
			ctx.WithFields(log.Fields{
				"from":   e.From,
				"to":     e.To,
				"amount": e.Amount.String(),
				"memo":   e.Memo,
			}).Warn("entry exceeds balance, batch dropped")
			return domain.ErrInsufficientFunds
		}
		staged[e.From.ToLower()] = new(big.Int).Sub(from, e.Amount)
		staged[e.To.ToLower()] = new(big.Int).Add(get(e.To), e.Amount)
	}

	for account, balance := range staged {
		im.balances[account] = balance
	}
	return nil
}
