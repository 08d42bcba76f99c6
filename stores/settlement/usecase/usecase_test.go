package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/domain/wallet"
	custodyRepo "github.com/nfthaus/goapi/stores/custody/repository"
	eventRepo "github.com/nfthaus/goapi/stores/event/repository"
	royaltyRepo "github.com/nfthaus/goapi/stores/royalty/repository"
	royaltyUC "github.com/nfthaus/goapi/stores/royalty/usecase"
	settlementRepo "github.com/nfthaus/goapi/stores/settlement/repository"
	walletRepo "github.com/nfthaus/goapi/stores/wallet/repository"
)

const (
	operator = domain.Address("0xmarket")
	treasury = domain.Address("0xtreasury")
	admin    = domain.Address("0xadmin")
	seller   = domain.Address("0xseller")
	buyer    = domain.Address("0xbuyer")
	artist   = domain.Address("0xartist")
)

// failingRegistry forces custody transfer failures after checks pass.
type failingRegistry struct {
	*custodyRepo.InMemoryRegistry
	failTransfer bool
}

func (r *failingRegistry) Transfer(ctx bCtx.Ctx, asset custody.AssetId, op, from, to domain.Address) error {
	if r.failTransfer {
		return domain.ErrCustodyTransferFailed
	}
	return r.InMemoryRegistry.Transfer(ctx, asset, op, from, to)
}

type settlementSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	ledger   wallet.Ledger
	registry *failingRegistry
	receipts settlement.ReceiptRepo
	royalty  *royaltyUC.RoyaltyUseCaseCfg
	uc       settlement.UseCase
	asset    custody.AssetId
}

func TestSettlementSuite(t *testing.T) {
	suite.Run(t, new(settlementSuite))
}

func (s *settlementSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.ledger = walletRepo.NewInMemoryLedger()
	s.registry = &failingRegistry{InMemoryRegistry: custodyRepo.NewInMemoryRegistry()}
	s.receipts = settlementRepo.NewInMemoryReceiptRepo()
	s.asset = custody.AssetId{Collection: "0xcollection", TokenId: "1"}

	events := eventRepo.NewInMemoryEventRepo()
	royalties := royaltyUC.New(&royaltyUC.RoyaltyUseCaseCfg{
		RoyaltyRepo:    royaltyRepo.NewInMemoryRoyaltyRepo(),
		EventRepo:      events,
		AdminAddresses: []domain.Address{admin},
	})
	s.Require().NoError(royalties.SetDefaultRoyalty(s.ctx, admin, s.asset.Collection, artist, 500))

	s.uc = New(&SettlementUseCaseCfg{
		ReceiptRepo:    s.receipts,
		FeeConfigRepo:  settlementRepo.NewInMemoryFeeConfigRepo(),
		EventRepo:      events,
		RoyaltyUC:      royalties,
		Ledger:         s.ledger,
		Registry:       s.registry,
		Operator:       operator,
		Treasury:       treasury,
		AdminAddresses: []domain.Address{admin},
		Now:            func() time.Time { return time.Unix(1700000000, 0) },
	})

	s.Require().NoError(s.registry.Mint(s.ctx, seller, s.asset))
	s.Require().NoError(s.registry.SetApproval(s.ctx, seller, s.asset, operator))
	s.Require().NoError(s.ledger.Deposit(s.ctx, buyer, big.NewInt(10000)))
}

func (s *settlementSuite) balance(account domain.Address) string {
	b, err := s.ledger.BalanceOf(s.ctx, account)
	s.Require().NoError(err)
	return b.String()
}

func (s *settlementSuite) TestSettleSplitsProceeds() {
	receipt, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     seller,
		Buyer:      buyer,
		GrossPrice: big.NewInt(10000),
		Source:     settlement.SourceBuyer,
	})
	s.Require().NoError(err)

	// 2.5% fee, 5% royalty
	s.Equal("250", receipt.PlatformFee)
	s.Equal("500", receipt.Royalty)
	s.Equal("9250", receipt.SellerProceeds)
	s.Equal(artist, receipt.RoyaltyReceiver)

	s.Equal("0", s.balance(buyer))
	s.Equal("9250", s.balance(seller))
	s.Equal("500", s.balance(artist))
	s.Equal("250", s.balance(domain.FeePoolAddress))

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(buyer, owner)

	stored, err := s.receipts.FindAll(s.ctx, nil, nil)
	s.NoError(err)
	s.Len(stored, 1)
}

func (s *settlementSuite) TestSettleRollsBackOnCustodyFailure() {
	s.registry.failTransfer = true

	_, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     seller,
		Buyer:      buyer,
		GrossPrice: big.NewInt(10000),
		Source:     settlement.SourceBuyer,
	})
	s.ErrorIs(err, domain.ErrTransfer)

	s.Equal("10000", s.balance(buyer))
	s.Equal("0", s.balance(seller))
	s.Equal("0", s.balance(artist))
	s.Equal("0", s.balance(domain.FeePoolAddress))

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(seller, owner)

	stored, err := s.receipts.FindAll(s.ctx, nil, nil)
	s.NoError(err)
	s.Empty(stored)
}

func (s *settlementSuite) TestSettleRejectsNonOwnerSeller() {
	_, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     buyer,
		Buyer:      seller,
		GrossPrice: big.NewInt(100),
		Source:     settlement.SourceBuyer,
	})
	s.ErrorIs(err, domain.ErrNotOwner)
}

func (s *settlementSuite) TestSettleRejectsNonPositivePrice() {
	_, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     seller,
		Buyer:      buyer,
		GrossPrice: big.NewInt(0),
		Source:     settlement.SourceBuyer,
	})
	s.ErrorIs(err, domain.ErrPriceMustBePositive)
}

func (s *settlementSuite) TestSettleFromEscrow() {
	s.Require().NoError(s.ledger.Deposit(s.ctx, domain.EscrowAddress, big.NewInt(10000)))

	_, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     seller,
		Buyer:      buyer,
		GrossPrice: big.NewInt(10000),
		Source:     settlement.SourceEscrow,
	})
	s.Require().NoError(err)

	// buyer already funded escrow, their balance is untouched
	s.Equal("10000", s.balance(buyer))
	s.Equal("0", s.balance(domain.EscrowAddress))
	s.Equal("9250", s.balance(seller))
}

func (s *settlementSuite) TestUpdatePlatformFee() {
	s.NoError(s.uc.UpdatePlatformFee(s.ctx, admin, 100))

	bps, err := s.uc.PlatformFeeBps(s.ctx)
	s.NoError(err)
	s.Equal(int64(100), bps)

	s.ErrorIs(s.uc.UpdatePlatformFee(s.ctx, admin, domain.MaxPlatformFeeBps+1), domain.ErrFeeTooHigh)
	s.ErrorIs(s.uc.UpdatePlatformFee(s.ctx, buyer, 100), domain.ErrNotAdmin)
}

func (s *settlementSuite) TestWithdrawFees() {
	_, err := s.uc.Settle(s.ctx, settlement.SettleParams{
		Asset:      s.asset,
		Seller:     seller,
		Buyer:      buyer,
		GrossPrice: big.NewInt(10000),
		Source:     settlement.SourceBuyer,
	})
	s.Require().NoError(err)

	_, err = s.uc.WithdrawFees(s.ctx, buyer)
	s.ErrorIs(err, domain.ErrNotAdmin)

	amount, err := s.uc.WithdrawFees(s.ctx, admin)
	s.NoError(err)
	s.Equal("250", amount)
	s.Equal("250", s.balance(treasury))
	s.Equal("0", s.balance(domain.FeePoolAddress))

	amount, err = s.uc.WithdrawFees(s.ctx, admin)
	s.NoError(err)
	s.Equal("0", amount)
}
