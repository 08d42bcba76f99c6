package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/wallet"
)

type ledgerSuite struct {
	suite.Suite

	ctx    bCtx.Ctx
	ledger wallet.Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(ledgerSuite))
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.ledger = NewInMemoryLedger()
}

func (s *ledgerSuite) balance(account domain.Address) string {
	b, err := s.ledger.BalanceOf(s.ctx, account)
	s.Require().NoError(err)
	return b.String()
}

func (s *ledgerSuite) TestDepositWithdraw() {
	s.NoError(s.ledger.Deposit(s.ctx, "0xAlice", big.NewInt(100)))
	s.Equal("100", s.balance("0xalice"))

	s.NoError(s.ledger.Withdraw(s.ctx, "0xALICE", big.NewInt(40)))
	s.Equal("60", s.balance("0xAlice"))

	err := s.ledger.Withdraw(s.ctx, "0xAlice", big.NewInt(61))
	s.ErrorIs(err, domain.ErrInsufficientFunds)
	s.Equal("60", s.balance("0xAlice"))
}

func (s *ledgerSuite) TestApplyIsAtomic() {
	s.NoError(s.ledger.Deposit(s.ctx, "0xAlice", big.NewInt(100)))

	err := s.ledger.Apply(s.ctx,
		wallet.Entry{From: "0xAlice", To: "0xBob", Amount: big.NewInt(70), Memo: "leg 1"},
		wallet.Entry{From: "0xAlice", To: "0xCarol", Amount: big.NewInt(70), Memo: "leg 2"},
	)
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	s.Equal("100", s.balance("0xAlice"))
	s.Equal("0", s.balance("0xBob"))
	s.Equal("0", s.balance("0xCarol"))
}

func (s *ledgerSuite) TestApplySpendsEarlierCredit() {
	s.NoError(s.ledger.Deposit(s.ctx, "0xAlice", big.NewInt(100)))

	err := s.ledger.Apply(s.ctx,
		wallet.Entry{From: "0xAlice", To: "0xBob", Amount: big.NewInt(100)},
		wallet.Entry{From: "0xBob", To: "0xCarol", Amount: big.NewInt(100)},
	)
	s.NoError(err)

	s.Equal("0", s.balance("0xAlice"))
	s.Equal("0", s.balance("0xBob"))
	s.Equal("100", s.balance("0xCarol"))
}

func (s *ledgerSuite) TestReverseRestoresBalances() {
	s.NoError(s.ledger.Deposit(s.ctx, "0xAlice", big.NewInt(100)))

	batch := []wallet.Entry{
		{From: "0xAlice", To: "0xBob", Amount: big.NewInt(30), Memo: "fee"},
		{From: "0xAlice", To: "0xCarol", Amount: big.NewInt(20), Memo: "royalty"},
	}
	s.NoError(s.ledger.Apply(s.ctx, batch...))
	s.NoError(s.ledger.Apply(s.ctx, wallet.Reverse(batch)...))

	s.Equal("100", s.balance("0xAlice"))
	s.Equal("0", s.balance("0xBob"))
	s.Equal("0", s.balance("0xCarol"))
}
