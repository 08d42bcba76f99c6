package usecase

import (
	"fmt"
	"math/big"
	"time"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/keylock"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/base/ptr"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/auction"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/keys"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/domain/wallet"
)

type AuctionUseCaseCfg struct {
	AuctionRepo  auction.Repo
	EventRepo    event.Repo
	SettlementUC settlement.UseCase
	Ledger       wallet.Ledger
	Registry     custody.Registry
	Operator     domain.Address
	KeyLock      *keylock.KeyLock
	Now          func() time.Time
}

type impl struct {
	auctionRepo  auction.Repo
	eventRepo    event.Repo
	settlementUC settlement.UseCase
	ledger       wallet.Ledger
	registry     custody.Registry
	operator     domain.Address
	keyLock      *keylock.KeyLock
	now          func() time.Time
}

func New(cfg *AuctionUseCaseCfg) auction.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	kl := cfg.KeyLock
	if kl == nil {
		kl = keylock.New()
	}
	return &impl{
		auctionRepo:  cfg.AuctionRepo,
		eventRepo:    cfg.EventRepo,
		settlementUC: cfg.SettlementUC,
		ledger:       cfg.Ledger,
		registry:     cfg.Registry,
		operator:     cfg.Operator,
		keyLock:      kl,
		now:          now,
	}
}

func auctionKey(id int64) string {
	return fmt.Sprintf("auction:%d", id)
}

func assetKey(collection domain.Address, tokenId domain.TokenId) string {
	return keys.AssetLockKey(collection.ToLowerStr(), tokenId.String())
}

func (im *impl) emit(ctx bCtx.Ctx, e *event.MarketEvent) {
	e.Time = im.now()
	if err := im.eventRepo.Insert(ctx, e); err != nil {
		ctx.WithFields(log.Fields{
			"err":  err,
			"type": e.Type,
		}).Error("failed to eventRepo.Insert")
	}
}

func (im *impl) Create(ctx bCtx.Ctx, seller, collection domain.Address, tokenId domain.TokenId, mode auction.Mode, startPrice, reservePrice string, duration time.Duration) (*auction.Auction, error) {
	if !mode.Valid() {
		return nil, domain.ErrValidation
	}
	if duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	start, err := domain.ParseAmount(startPrice)
	if err != nil {
		return nil, err
	}
	if start.Sign() <= 0 {
		return nil, domain.ErrPriceMustBePositive
	}
	reserve, err := domain.ParseAmount(reservePrice)
	if err != nil {
		return nil, err
	}
	if reserve.Sign() <= 0 {
		return nil, domain.ErrPriceMustBePositive
	}
	// a Dutch price decays from start down to reserve
	if mode == auction.ModeDutch && reserve.Cmp(start) > 0 {
		return nil, domain.ErrValidation
	}

	asset := custody.AssetId{Collection: collection.ToLower(), TokenId: tokenId}
	owner, err := im.registry.OwnerOf(ctx, asset)
	if err != nil {
		return nil, err
	}
	if !owner.Equals(seller) {
		return nil, domain.ErrNotOwner
	}
	if approved, err := im.registry.IsApproved(ctx, asset, im.operator); err != nil {
		return nil, err
	} else if !approved {
		return nil, domain.ErrNotApproved
	}

	im.keyLock.Lock(assetKey(collection, tokenId))
	defer im.keyLock.Unlock(assetKey(collection, tokenId))

	open, err := im.auctionRepo.FindAll(ctx,
		auction.WithCollection(collection),
		auction.WithFinalized(false),
	)
	if err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.FindAll")
		return nil, err
	}
	for _, a := range open {
		if a.TokenId == tokenId {
			return nil, domain.ErrListingExists
		}
	}

	a := &auction.Auction{
		Collection:   collection,
		TokenId:      tokenId,
		Seller:       seller,
		Mode:         mode,
		StartPrice:   start.String(),
		ReservePrice: reserve.String(),
		StartTime:    im.now(),
		Duration:     duration,
	}
	id, err := im.auctionRepo.Insert(ctx, a)
	if err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.Insert")
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeAuctionCreated,
		AuctionId:  &id,
		Collection: a.Collection,
		TokenId:    a.TokenId,
		Account:    a.Seller,
		Amount:     a.StartPrice,
	})

	return a, nil
}

// dutchPrice computes the linearly decayed price at now, clamped to the
// reserve once the duration has fully elapsed.
func dutchPrice(a *auction.Auction, now time.Time) (*big.Int, error) {
	start, err := domain.ParseAmount(a.StartPrice)
	if err != nil {
		return nil, err
	}
	reserve, err := domain.ParseAmount(a.ReservePrice)
	if err != nil {
		return nil, err
	}

	elapsed := now.Sub(a.StartTime)
	if elapsed <= 0 {
		return start, nil
	}
	if elapsed >= a.Duration {
		return reserve, nil
	}

	span := new(big.Int).Sub(start, reserve)
	decay := span.Mul(span, big.NewInt(int64(elapsed)))
	decay.Div(decay, big.NewInt(int64(a.Duration)))
	return new(big.Int).Sub(start, decay), nil
}

func (im *impl) currentPrice(ctx bCtx.Ctx, a *auction.Auction) (*big.Int, error) {
	if a.Mode == auction.ModeDutch {
		return dutchPrice(a, im.now())
	}
	if a.HighestBid != "" {
		return domain.ParseAmount(a.HighestBid)
	}
	return domain.ParseAmount(a.StartPrice)
}

func (im *impl) CurrentPrice(ctx bCtx.Ctx, id int64) (string, error) {
	a, err := im.auctionRepo.FindOne(ctx, id)
	if err != nil {
		return "", err
	}
	price, err := im.currentPrice(ctx, a)
	if err != nil {
		return "", err
	}
	return price.String(), nil
}

func (im *impl) PlaceBid(ctx bCtx.Ctx, id int64, bidder domain.Address, payment string) (*auction.BidResult, error) {
	paid, err := domain.ParseAmount(payment)
	if err != nil {
		return nil, err
	}

	im.keyLock.Lock(auctionKey(id))
	defer im.keyLock.Unlock(auctionKey(id))

	a, err := im.auctionRepo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Finalized {
		return nil, domain.ErrAuctionFinalized
	}
	if a.Expired(im.now()) {
		return nil, domain.ErrAuctionEnded
	}

	if a.Mode == auction.ModeDutch {
		return im.placeDutchBid(ctx, a, bidder, paid)
	}
	return im.placeEnglishBid(ctx, a, bidder, paid)
}

func (im *impl) placeEnglishBid(ctx bCtx.Ctx, a *auction.Auction, bidder domain.Address, bid *big.Int) (*auction.BidResult, error) {
	start, err := domain.ParseAmount(a.StartPrice)
	if err != nil {
		return nil, err
	}
	if bid.Cmp(start) < 0 {
		return nil, domain.ErrBidTooLow
	}

	// refund of the previous highest bid rides in the same atomic batch as
	// the new escrow, no point in time holds both
	entries := []wallet.Entry{{
		From: bidder, To: domain.EscrowAddress, Amount: bid, Memo: fmt.Sprintf("bid on auction %d", a.Id),
	}}
	prevBidder := a.HighestBidder
	if !prevBidder.IsEmpty() {
		prevBid, err := domain.ParseAmount(a.HighestBid)
		if err != nil {
			return nil, err
		}
		if bid.Cmp(prevBid) <= 0 {
			return nil, domain.ErrBidTooLow
		}
		entries = append(entries, wallet.Entry{
			From: domain.EscrowAddress, To: prevBidder, Amount: prevBid, Memo: fmt.Sprintf("outbid refund auction %d", a.Id),
		})
	}

	if err := im.ledger.Apply(ctx, entries...); err != nil {
		return nil, err
	}

	if err := im.auctionRepo.Update(ctx, a.Id, auction.Patchable{
		HighestBidder: bidder.ToLowerPtr(),
		HighestBid:    ptr.String(bid.String()),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.Update")
		return nil, err
	}
	a.HighestBidder = bidder.ToLower()
	a.HighestBid = bid.String()

	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeBidPlaced,
		AuctionId:    &a.Id,
		Collection:   a.Collection,
		TokenId:      a.TokenId,
		Account:      a.HighestBidder,
		CounterParty: prevBidder,
		Amount:       a.HighestBid,
	})

	return &auction.BidResult{Auction: a}, nil
}

// placeDutchBid settles at the decayed price and finalizes the auction in
// the same call. The first qualifying bid wins.
func (im *impl) placeDutchBid(ctx bCtx.Ctx, a *auction.Auction, bidder domain.Address, paid *big.Int) (*auction.BidResult, error) {
	price, err := dutchPrice(a, im.now())
	if err != nil {
		return nil, err
	}
	if paid.Cmp(price) < 0 {
		return nil, domain.ErrInsufficientPayment
	}

	receipt, err := im.settlementUC.Settle(ctx, settlement.SettleParams{
		Asset:      custody.AssetId{Collection: a.Collection, TokenId: a.TokenId},
		Seller:     a.Seller,
		Buyer:      bidder,
		GrossPrice: price,
		Source:     settlement.SourceBuyer,
	})
	if err != nil {
		return nil, err
	}

	if err := im.auctionRepo.Update(ctx, a.Id, auction.Patchable{
		HighestBidder: bidder.ToLowerPtr(),
		HighestBid:    ptr.String(price.String()),
		Finalized:     ptr.Bool(true),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.Update")
		return nil, err
	}
	a.HighestBidder = bidder.ToLower()
	a.HighestBid = price.String()
	a.Finalized = true

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeBidPlaced,
		AuctionId:  &a.Id,
		Collection: a.Collection,
		TokenId:    a.TokenId,
		Account:    a.HighestBidder,
		Amount:     a.HighestBid,
	})
	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeAuctionFinalized,
		AuctionId:    &a.Id,
		Collection:   a.Collection,
		TokenId:      a.TokenId,
		Account:      a.HighestBidder,
		CounterParty: a.Seller,
		Amount:       a.HighestBid,
	})

	return &auction.BidResult{Auction: a, Receipt: receipt}, nil
}

func (im *impl) Finalize(ctx bCtx.Ctx, id int64, caller domain.Address) (*settlement.Receipt, error) {
	im.keyLock.Lock(auctionKey(id))
	defer im.keyLock.Unlock(auctionKey(id))

	a, err := im.auctionRepo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Finalized {
		return nil, domain.ErrAuctionFinalized
	}
	if !a.Expired(im.now()) {
		return nil, domain.ErrAuctionNotEnded
	}

	// Dutch auctions finalize on sale; an expired one just closes unsold.
	if a.Mode == auction.ModeDutch || a.HighestBidder.IsEmpty() {
		return nil, im.closeUnsold(ctx, a)
	}

	bid, err := domain.ParseAmount(a.HighestBid)
	if err != nil {
		return nil, err
	}
	reserve, err := domain.ParseAmount(a.ReservePrice)
	if err != nil {
		return nil, err
	}

	// reserve not met: refund the highest bidder, nothing is disbursed
	if bid.Cmp(reserve) < 0 {
		if err := im.ledger.Apply(ctx, wallet.Entry{
			From: domain.EscrowAddress, To: a.HighestBidder, Amount: bid, Memo: fmt.Sprintf("reserve not met auction %d", id),
		}); err != nil {
			ctx.WithField("err", err).Error("failed to ledger.Apply")
			return nil, err
		}
		return nil, im.closeUnsold(ctx, a)
	}

	receipt, err := im.settlementUC.Settle(ctx, settlement.SettleParams{
		Asset:      custody.AssetId{Collection: a.Collection, TokenId: a.TokenId},
		Seller:     a.Seller,
		Buyer:      a.HighestBidder,
		GrossPrice: bid,
		Source:     settlement.SourceEscrow,
	})
	if err != nil {
		return nil, err
	}

	if err := im.auctionRepo.Update(ctx, id, auction.Patchable{Finalized: ptr.Bool(true)}); err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.Update")
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeAuctionFinalized,
		AuctionId:    &id,
		Collection:   a.Collection,
		TokenId:      a.TokenId,
		Account:      a.HighestBidder,
		CounterParty: a.Seller,
		Amount:       a.HighestBid,
	})

	return receipt, nil
}

func (im *impl) closeUnsold(ctx bCtx.Ctx, a *auction.Auction) error {
	if err := im.auctionRepo.Update(ctx, a.Id, auction.Patchable{Finalized: ptr.Bool(true)}); err != nil {
		ctx.WithField("err", err).Error("failed to auctionRepo.Update")
		return err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeAuctionFinalized,
		AuctionId:    &a.Id,
		Collection:   a.Collection,
		TokenId:      a.TokenId,
		CounterParty: a.Seller,
	})
	return nil
}

func (im *impl) Get(ctx bCtx.Ctx, id int64) (*auction.Auction, error) {
	return im.auctionRepo.FindOne(ctx, id)
}

func (im *impl) FindAll(ctx bCtx.Ctx, opts ...auction.FindAllOptionsFunc) ([]*auction.Auction, error) {
	return im.auctionRepo.FindAll(ctx, opts...)
}
