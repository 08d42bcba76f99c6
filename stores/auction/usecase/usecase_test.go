package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/auction"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/wallet"
	auctionRepo "github.com/nfthaus/goapi/stores/auction/repository"
	custodyRepo "github.com/nfthaus/goapi/stores/custody/repository"
	eventRepo "github.com/nfthaus/goapi/stores/event/repository"
	royaltyRepo "github.com/nfthaus/goapi/stores/royalty/repository"
	royaltyUC "github.com/nfthaus/goapi/stores/royalty/usecase"
	settlementRepo "github.com/nfthaus/goapi/stores/settlement/repository"
	settlementUC "github.com/nfthaus/goapi/stores/settlement/usecase"
	walletRepo "github.com/nfthaus/goapi/stores/wallet/repository"
)

const (
	operator = domain.Address("0xmarket")
	admin    = domain.Address("0xadmin")
	seller   = domain.Address("0xseller")
	alice    = domain.Address("0xalice")
	bob      = domain.Address("0xbob")
)

type auctionSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	now      time.Time
	ledger   wallet.Ledger
	registry *custodyRepo.InMemoryRegistry
	events   event.Repo
	uc       auction.UseCase
	asset    custody.AssetId
}

func TestAuctionSuite(t *testing.T) {
	suite.Run(t, new(auctionSuite))
}

func (s *auctionSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.now = time.Unix(1700000000, 0)
	s.ledger = walletRepo.NewInMemoryLedger()
	s.registry = custodyRepo.NewInMemoryRegistry()
	s.events = eventRepo.NewInMemoryEventRepo()
	s.asset = custody.AssetId{Collection: "0xcollection", TokenId: "1"}

	nowFn := func() time.Time { return s.now }

	royalties := royaltyUC.New(&royaltyUC.RoyaltyUseCaseCfg{
		RoyaltyRepo:    royaltyRepo.NewInMemoryRoyaltyRepo(),
		EventRepo:      s.events,
		AdminAddresses: []domain.Address{admin},
	})

	settle := settlementUC.New(&settlementUC.SettlementUseCaseCfg{
		ReceiptRepo:    settlementRepo.NewInMemoryReceiptRepo(),
		FeeConfigRepo:  settlementRepo.NewInMemoryFeeConfigRepo(),
		EventRepo:      s.events,
		RoyaltyUC:      royalties,
		Ledger:         s.ledger,
		Registry:       s.registry,
		Operator:       operator,
		Treasury:       "0xtreasury",
		AdminAddresses: []domain.Address{admin},
		Now:            nowFn,
	})

	s.uc = New(&AuctionUseCaseCfg{
		AuctionRepo:  auctionRepo.NewInMemoryAuctionRepo(),
		EventRepo:    s.events,
		SettlementUC: settle,
		Ledger:       s.ledger,
		Registry:     s.registry,
		Operator:     operator,
		Now:          nowFn,
	})

	s.Require().NoError(s.registry.Mint(s.ctx, seller, s.asset))
	s.Require().NoError(s.registry.SetApproval(s.ctx, seller, s.asset, operator))
	s.Require().NoError(s.ledger.Deposit(s.ctx, alice, big.NewInt(50000)))
	s.Require().NoError(s.ledger.Deposit(s.ctx, bob, big.NewInt(50000)))
}

func (s *auctionSuite) balance(account domain.Address) string {
	b, err := s.ledger.BalanceOf(s.ctx, account)
	s.Require().NoError(err)
	return b.String()
}

func (s *auctionSuite) english(startPrice, reservePrice string) *auction.Auction {
	a, err := s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeEnglish, startPrice, reservePrice, time.Hour)
	s.Require().NoError(err)
	return a
}

func (s *auctionSuite) dutch(startPrice, reservePrice string) *auction.Auction {
	a, err := s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeDutch, startPrice, reservePrice, time.Hour)
	s.Require().NoError(err)
	return a
}

func (s *auctionSuite) TestCreateValidation() {
	_, err := s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.Mode(9), "100", "0", time.Hour)
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeEnglish, "100", "0", 0)
	s.ErrorIs(err, domain.ErrInvalidDuration)

	_, err = s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeEnglish, "0", "50", time.Hour)
	s.ErrorIs(err, domain.ErrPriceMustBePositive)

	_, err = s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeEnglish, "100", "0", time.Hour)
	s.ErrorIs(err, domain.ErrPriceMustBePositive)

	// Dutch reserve must not exceed the start price
	_, err = s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeDutch, "100", "200", time.Hour)
	s.ErrorIs(err, domain.ErrValidation)

	s.english("100", "50")
	_, err = s.uc.Create(s.ctx, seller, s.asset.Collection, s.asset.TokenId, auction.ModeEnglish, "100", "50", time.Hour)
	s.ErrorIs(err, domain.ErrListingExists)
}

func (s *auctionSuite) TestDutchPriceDecay() {
	a := s.dutch("10000", "2000")

	price, err := s.uc.CurrentPrice(s.ctx, a.Id)
	s.NoError(err)
	s.Equal("10000", price)

	s.now = s.now.Add(30 * time.Minute)
	price, err = s.uc.CurrentPrice(s.ctx, a.Id)
	s.NoError(err)
	s.Equal("6000", price)

	s.now = s.now.Add(30 * time.Minute)
	price, err = s.uc.CurrentPrice(s.ctx, a.Id)
	s.NoError(err)
	s.Equal("2000", price)
}

func (s *auctionSuite) TestDutchBidSettlesImmediately() {
	a := s.dutch("10000", "2000")
	s.now = s.now.Add(30 * time.Minute)

	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "5999")
	s.ErrorIs(err, domain.ErrInsufficientPayment)

	res, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "8000")
	s.Require().NoError(err)
	s.Require().NotNil(res.Receipt)
	// charged the decayed price, not the payment
	s.Equal("6000", res.Receipt.GrossPrice)
	s.True(res.Auction.Finalized)

	s.Equal("44000", s.balance(alice))
	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(alice, owner)

	_, err = s.uc.PlaceBid(s.ctx, a.Id, bob, "10000")
	s.ErrorIs(err, domain.ErrAuctionFinalized)
}

func (s *auctionSuite) TestEnglishOutbidRefundsPrevious() {
	a := s.english("1000", "500")

	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "999")
	s.ErrorIs(err, domain.ErrBidTooLow)

	_, err = s.uc.PlaceBid(s.ctx, a.Id, alice, "1000")
	s.Require().NoError(err)
	s.Equal("49000", s.balance(alice))
	s.Equal("1000", s.balance(domain.EscrowAddress))

	_, err = s.uc.PlaceBid(s.ctx, a.Id, bob, "1000")
	s.ErrorIs(err, domain.ErrBidTooLow)

	_, err = s.uc.PlaceBid(s.ctx, a.Id, bob, "1500")
	s.Require().NoError(err)
	// alice is made whole in the same batch
	s.Equal("50000", s.balance(alice))
	s.Equal("48500", s.balance(bob))
	s.Equal("1500", s.balance(domain.EscrowAddress))
}

func (s *auctionSuite) TestEnglishFinalizeReserveMet() {
	a := s.english("1000", "2000")

	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "2500")
	s.Require().NoError(err)

	_, err = s.uc.Finalize(s.ctx, a.Id, seller)
	s.ErrorIs(err, domain.ErrAuctionNotEnded)

	s.now = s.now.Add(time.Hour)
	receipt, err := s.uc.Finalize(s.ctx, a.Id, seller)
	s.Require().NoError(err)
	s.Equal("2500", receipt.GrossPrice)

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(alice, owner)
	s.Equal("0", s.balance(domain.EscrowAddress))

	_, err = s.uc.Finalize(s.ctx, a.Id, seller)
	s.ErrorIs(err, domain.ErrAuctionFinalized)
}

func (s *auctionSuite) TestEnglishFinalizeReserveNotMet() {
	a := s.english("1000", "3000")

	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "2000")
	s.Require().NoError(err)

	s.now = s.now.Add(time.Hour)
	receipt, err := s.uc.Finalize(s.ctx, a.Id, seller)
	s.NoError(err)
	s.Nil(receipt)

	// bidder refunded, seller keeps the asset
	s.Equal("50000", s.balance(alice))
	s.Equal("0", s.balance(seller))
	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(seller, owner)

	got, err := s.uc.Get(s.ctx, a.Id)
	s.NoError(err)
	s.True(got.Finalized)
}

func (s *auctionSuite) TestEnglishFinalizeNoBids() {
	a := s.english("1000", "500")

	s.now = s.now.Add(time.Hour)
	receipt, err := s.uc.Finalize(s.ctx, a.Id, seller)
	s.NoError(err)
	s.Nil(receipt)

	got, err := s.uc.Get(s.ctx, a.Id)
	s.NoError(err)
	s.True(got.Finalized)
}

func (s *auctionSuite) TestBidAfterEnd() {
	a := s.english("1000", "500")

	s.now = s.now.Add(time.Hour)
	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "1000")
	s.ErrorIs(err, domain.ErrAuctionEnded)
}

func (s *auctionSuite) TestDutchExpiresUnsold() {
	a := s.dutch("10000", "2000")

	s.now = s.now.Add(2 * time.Hour)
	receipt, err := s.uc.Finalize(s.ctx, a.Id, seller)
	s.NoError(err)
	s.Nil(receipt)

	got, err := s.uc.Get(s.ctx, a.Id)
	s.NoError(err)
	s.True(got.Finalized)
	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(seller, owner)
}

func (s *auctionSuite) TestEventsEmitted() {
	a := s.english("1000", "500")
	_, err := s.uc.PlaceBid(s.ctx, a.Id, alice, "1000")
	s.Require().NoError(err)
	s.now = s.now.Add(time.Hour)
	_, err = s.uc.Finalize(s.ctx, a.Id, seller)
	s.Require().NoError(err)

	evts, err := s.events.FindAll(s.ctx, event.WithAuctionId(a.Id))
	s.NoError(err)
	s.Require().Len(evts, 3)
	s.Equal(event.TypeAuctionFinalized, evts[0].Type)
	s.Equal(event.TypeBidPlaced, evts[1].Type)
	s.Equal(event.TypeAuctionCreated, evts[2].Type)
}
