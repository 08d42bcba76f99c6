package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/listing"
	"github.com/nfthaus/goapi/domain/wallet"
	custodyRepo "github.com/nfthaus/goapi/stores/custody/repository"
	eventRepo "github.com/nfthaus/goapi/stores/event/repository"
	listingRepo "github.com/nfthaus/goapi/stores/listing/repository"
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
	buyer    = domain.Address("0xbuyer")
	buyer2   = domain.Address("0xbuyer2")
	artist   = domain.Address("0xartist")
)

type listingSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	now      time.Time
	ledger   wallet.Ledger
	registry *custodyRepo.InMemoryRegistry
	events   event.Repo
	uc       listing.UseCase
	asset    custody.AssetId
}

func TestListingSuite(t *testing.T) {
	suite.Run(t, new(listingSuite))
}

func (s *listingSuite) SetupTest() {
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
	s.Require().NoError(royalties.SetDefaultRoyalty(s.ctx, admin, s.asset.Collection, artist, 500))

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

	s.uc = New(&ListingUseCaseCfg{
		ListingRepo:  listingRepo.NewInMemoryListingRepo(),
		OfferRepo:    listingRepo.NewInMemoryOfferRepo(),
		EventRepo:    s.events,
		SettlementUC: settle,
		Ledger:       s.ledger,
		Registry:     s.registry,
		Operator:     operator,
		Now:          nowFn,
	})

	s.Require().NoError(s.registry.Mint(s.ctx, seller, s.asset))
	s.Require().NoError(s.registry.SetApproval(s.ctx, seller, s.asset, operator))
	s.Require().NoError(s.ledger.Deposit(s.ctx, buyer, big.NewInt(20000)))
	s.Require().NoError(s.ledger.Deposit(s.ctx, buyer2, big.NewInt(20000)))
}

func (s *listingSuite) balance(account domain.Address) string {
	b, err := s.ledger.BalanceOf(s.ctx, account)
	s.Require().NoError(err)
	return b.String()
}

func (s *listingSuite) list() *listing.Listing {
	l, err := s.uc.List(s.ctx, seller, s.asset.Collection, s.asset.TokenId, "10000")
	s.Require().NoError(err)
	return l
}

func (s *listingSuite) TestListRejectsInvalidPrice() {
	_, err := s.uc.List(s.ctx, seller, s.asset.Collection, s.asset.TokenId, "0")
	s.ErrorIs(err, domain.ErrPriceMustBePositive)

	_, err = s.uc.List(s.ctx, seller, s.asset.Collection, s.asset.TokenId, "not-a-number")
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *listingSuite) TestListRejectsDuplicateActive() {
	s.list()

	_, err := s.uc.List(s.ctx, seller, s.asset.Collection, s.asset.TokenId, "9000")
	s.ErrorIs(err, domain.ErrListingExists)
}

func (s *listingSuite) TestListRequiresOwnershipAndApproval() {
	_, err := s.uc.List(s.ctx, buyer, s.asset.Collection, s.asset.TokenId, "10000")
	s.ErrorIs(err, domain.ErrNotOwner)

	other := custody.AssetId{Collection: s.asset.Collection, TokenId: "2"}
	s.Require().NoError(s.registry.Mint(s.ctx, seller, other))
	_, err = s.uc.List(s.ctx, seller, other.Collection, other.TokenId, "10000")
	s.ErrorIs(err, domain.ErrNotApproved)
}

func (s *listingSuite) TestBuySettlesAtListedPrice() {
	l := s.list()

	receipt, err := s.uc.Buy(s.ctx, l.Id, buyer, "15000")
	s.Require().NoError(err)
	s.Equal("10000", receipt.GrossPrice)

	// only the listed price is debited, the excess stays put
	s.Equal("10000", s.balance(buyer))
	s.Equal("9250", s.balance(seller))
	s.Equal("500", s.balance(artist))

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(buyer, owner)

	got, _, err := s.uc.Get(s.ctx, l.Id)
	s.NoError(err)
	s.False(got.IsActive)

	_, err = s.uc.Buy(s.ctx, l.Id, buyer2, "10000")
	s.ErrorIs(err, domain.ErrListingInactive)
}

func (s *listingSuite) TestBuyRejectsInsufficientPayment() {
	l := s.list()

	_, err := s.uc.Buy(s.ctx, l.Id, buyer, "9999")
	s.ErrorIs(err, domain.ErrInsufficientPayment)
	s.Equal("20000", s.balance(buyer))
}

func (s *listingSuite) TestCancel() {
	l := s.list()

	s.ErrorIs(s.uc.Cancel(s.ctx, l.Id, buyer), domain.ErrNotSeller)
	s.NoError(s.uc.Cancel(s.ctx, l.Id, seller))
	s.ErrorIs(s.uc.Cancel(s.ctx, l.Id, seller), domain.ErrListingInactive)

	// the asset can be listed again afterwards
	_, err := s.uc.List(s.ctx, seller, s.asset.Collection, s.asset.TokenId, "8000")
	s.NoError(err)
}

func (s *listingSuite) TestOfferLifecycle() {
	l := s.list()
	deadline := s.now.Add(time.Hour)

	o1, err := s.uc.MakeOffer(s.ctx, l.Id, buyer, "8000", deadline)
	s.Require().NoError(err)
	s.Equal(0, o1.Index)
	s.Equal("12000", s.balance(buyer))
	s.Equal("8000", s.balance(domain.EscrowAddress))

	o2, err := s.uc.MakeOffer(s.ctx, l.Id, buyer2, "9000", deadline)
	s.Require().NoError(err)
	s.Equal(1, o2.Index)

	receipt, err := s.uc.AcceptOffer(s.ctx, l.Id, o2.Index, seller)
	s.Require().NoError(err)
	s.Equal("9000", receipt.GrossPrice)

	// 2.5% fee = 225, 5% royalty = 450
	s.Equal("8325", s.balance(seller))
	s.Equal("450", s.balance(artist))

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(buyer2, owner)

	// the losing offer stays escrowed until the buyer withdraws it
	s.Equal("8000", s.balance(domain.EscrowAddress))
	s.NoError(s.uc.WithdrawOffer(s.ctx, l.Id, o1.Index, buyer))
	s.Equal("20000", s.balance(buyer))
	s.Equal("0", s.balance(domain.EscrowAddress))
}

func (s *listingSuite) TestAcceptOfferGuards() {
	l := s.list()
	deadline := s.now.Add(time.Hour)

	o, err := s.uc.MakeOffer(s.ctx, l.Id, buyer, "8000", deadline)
	s.Require().NoError(err)

	_, err = s.uc.AcceptOffer(s.ctx, l.Id, o.Index, buyer)
	s.ErrorIs(err, domain.ErrNotSeller)

	s.now = deadline.Add(time.Second)
	_, err = s.uc.AcceptOffer(s.ctx, l.Id, o.Index, seller)
	s.ErrorIs(err, domain.ErrOfferExpired)

	// expired offers can still be withdrawn
	s.NoError(s.uc.WithdrawOffer(s.ctx, l.Id, o.Index, buyer))
	s.Equal("20000", s.balance(buyer))

	_, err = s.uc.AcceptOffer(s.ctx, l.Id, o.Index, seller)
	s.ErrorIs(err, domain.ErrOfferClosed)
}

func (s *listingSuite) TestMakeOfferGuards() {
	l := s.list()

	_, err := s.uc.MakeOffer(s.ctx, l.Id, buyer, "8000", s.now)
	s.ErrorIs(err, domain.ErrInvalidExpiry)

	_, err = s.uc.MakeOffer(s.ctx, l.Id, buyer, "999999", s.now.Add(time.Hour))
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	s.NoError(s.uc.Cancel(s.ctx, l.Id, seller))
	_, err = s.uc.MakeOffer(s.ctx, l.Id, buyer, "8000", s.now.Add(time.Hour))
	s.ErrorIs(err, domain.ErrListingInactive)
}

func (s *listingSuite) TestWithdrawOfferOnlyByBuyer() {
	l := s.list()

	o, err := s.uc.MakeOffer(s.ctx, l.Id, buyer, "8000", s.now.Add(time.Hour))
	s.Require().NoError(err)

	s.ErrorIs(s.uc.WithdrawOffer(s.ctx, l.Id, o.Index, buyer2), domain.ErrAuthorization)
	s.NoError(s.uc.WithdrawOffer(s.ctx, l.Id, o.Index, buyer))
	s.ErrorIs(s.uc.WithdrawOffer(s.ctx, l.Id, o.Index, buyer), domain.ErrOfferClosed)
}

func (s *listingSuite) TestEventsEmitted() {
	l := s.list()
	_, err := s.uc.Buy(s.ctx, l.Id, buyer, "10000")
	s.Require().NoError(err)

	evts, err := s.events.FindAll(s.ctx, event.WithListingId(l.Id))
	s.NoError(err)
	s.Require().Len(evts, 2)
	s.Equal(event.TypeItemSold, evts[0].Type)
	s.Equal(event.TypeItemListed, evts[1].Type)
}
