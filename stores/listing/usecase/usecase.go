package usecase

import (
	"fmt"
	"time"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/keylock"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/base/ptr"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/keys"
	"github.com/nfthaus/goapi/domain/listing"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/domain/wallet"
)

type ListingUseCaseCfg struct {
	ListingRepo  listing.Repo
	OfferRepo    listing.OfferRepo
	EventRepo    event.Repo
	SettlementUC settlement.UseCase
	Ledger       wallet.Ledger
	Registry     custody.Registry
	Operator     domain.Address
	KeyLock      *keylock.KeyLock
	Now          func() time.Time
}

type impl struct {
	listingRepo  listing.Repo
	offerRepo    listing.OfferRepo
	eventRepo    event.Repo
	settlementUC settlement.UseCase
	ledger       wallet.Ledger
	registry     custody.Registry
	operator     domain.Address
	keyLock      *keylock.KeyLock
	now          func() time.Time
}

func New(cfg *ListingUseCaseCfg) listing.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	kl := cfg.KeyLock
	if kl == nil {
		kl = keylock.New()
	}
	return &impl{
		listingRepo:  cfg.ListingRepo,
		offerRepo:    cfg.OfferRepo,
		eventRepo:    cfg.EventRepo,
		settlementUC: cfg.SettlementUC,
		ledger:       cfg.Ledger,
		registry:     cfg.Registry,
		operator:     cfg.Operator,
		keyLock:      kl,
		now:          now,
	}
}

func listingKey(id int64) string {
	return fmt.Sprintf("listing:%d", id)
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

func (im *impl) List(ctx bCtx.Ctx, seller, collection domain.Address, tokenId domain.TokenId, price string) (*listing.Listing, error) {
	amount, err := domain.ParseAmount(price)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, domain.ErrPriceMustBePositive
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

	existing, err := im.listingRepo.FindAll(ctx,
		listing.WithCollection(collection),
		listing.WithTokenId(tokenId),
		listing.WithIsActive(true),
	)
	if err != nil {
		ctx.WithField("err", err).Error("failed to listingRepo.FindAll")
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrListingExists
	}

	l := &listing.Listing{
		Collection: collection,
		TokenId:    tokenId,
		Seller:     seller,
		Price:      amount.String(),
		IsActive:   true,
		CreatedAt:  im.now(),
	}
	id, err := im.listingRepo.Insert(ctx, l)
	if err != nil {
		ctx.WithField("err", err).Error("failed to listingRepo.Insert")
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeItemListed,
		ListingId:  &id,
		Collection: l.Collection,
		TokenId:    l.TokenId,
		Account:    l.Seller,
		Amount:     l.Price,
	})

	return l, nil
}

func (im *impl) Buy(ctx bCtx.Ctx, id int64, buyer domain.Address, payment string) (*settlement.Receipt, error) {
	paid, err := domain.ParseAmount(payment)
	if err != nil {
		return nil, err
	}

	im.keyLock.Lock(listingKey(id))
	defer im.keyLock.Unlock(listingKey(id))

	l, err := im.listingRepo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		return nil, domain.ErrListingInactive
	}

	price, err := domain.ParseAmount(l.Price)
	if err != nil {
		return nil, err
	}
	// excess payment stays with the buyer, only the listed price settles
	if paid.Cmp(price) < 0 {
		return nil, domain.ErrInsufficientPayment
	}

	receipt, err := im.settlementUC.Settle(ctx, settlement.SettleParams{
		Asset:      custody.AssetId{Collection: l.Collection, TokenId: l.TokenId},
		Seller:     l.Seller,
		Buyer:      buyer,
		GrossPrice: price,
		Source:     settlement.SourceBuyer,
	})
	if err != nil {
		return nil, err
	}

	if err := im.listingRepo.Update(ctx, id, listing.Patchable{IsActive: ptr.Bool(false)}); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to listingRepo.Update")
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeItemSold,
		ListingId:    &id,
		Collection:   l.Collection,
		TokenId:      l.TokenId,
		Account:      buyer.ToLower(),
		CounterParty: l.Seller,
		Amount:       l.Price,
	})

	return receipt, nil
}

func (im *impl) Cancel(ctx bCtx.Ctx, id int64, caller domain.Address) error {
	im.keyLock.Lock(listingKey(id))
	defer im.keyLock.Unlock(listingKey(id))

	l, err := im.listingRepo.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotSeller
	}
	if !l.IsActive {
		return domain.ErrListingInactive
	}

	if err := im.listingRepo.Update(ctx, id, listing.Patchable{IsActive: ptr.Bool(false)}); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to listingRepo.Update")
		return err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeListingCancelled,
		ListingId:  &id,
		Collection: l.Collection,
		TokenId:    l.TokenId,
		Account:    l.Seller,
	})

	return nil
}

func (im *impl) MakeOffer(ctx bCtx.Ctx, id int64, buyer domain.Address, payment string, deadline time.Time) (*listing.Offer, error) {
	amount, err := domain.ParseAmount(payment)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, domain.ErrPriceMustBePositive
	}
	if !deadline.After(im.now()) {
		return nil, domain.ErrInvalidExpiry
	}

	im.keyLock.Lock(listingKey(id))
	defer im.keyLock.Unlock(listingKey(id))

	l, err := im.listingRepo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		return nil, domain.ErrListingInactive
	}

	// funds move to escrow up front, refunded on withdrawal
	if err := im.ledger.Apply(ctx, wallet.Entry{
		From: buyer, To: domain.EscrowAddress, Amount: amount, Memo: fmt.Sprintf("offer on listing %d", id),
	}); err != nil {
		return nil, err
	}

	o := &listing.Offer{
		ListingId: id,
		Buyer:     buyer,
		Amount:    amount.String(),
		Deadline:  deadline,
		CreatedAt: im.now(),
	}
	index, err := im.offerRepo.Insert(ctx, o)
	if err != nil {
		ctx.WithField("err", err).Error("failed to offerRepo.Insert")
		if rerr := im.ledger.Apply(ctx, wallet.Entry{
			From: domain.EscrowAddress, To: buyer, Amount: amount, Memo: "undo offer escrow",
		}); rerr != nil {
			ctx.WithField("err", rerr).Error("failed to refund offer escrow")
		}
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeOfferMade,
		ListingId:  &id,
		OfferIndex: &index,
		Collection: l.Collection,
		TokenId:    l.TokenId,
		Account:    o.Buyer,
		Amount:     o.Amount,
	})

	return o, nil
}

func (im *impl) AcceptOffer(ctx bCtx.Ctx, id int64, index int, caller domain.Address) (*settlement.Receipt, error) {
	im.keyLock.Lock(listingKey(id))
	defer im.keyLock.Unlock(listingKey(id))

	l, err := im.listingRepo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Seller.Equals(caller) {
		return nil, domain.ErrNotSeller
	}
	if !l.IsActive {
		return nil, domain.ErrListingInactive
	}

	o, err := im.offerRepo.FindOne(ctx, id, index)
	if err != nil {
		return nil, err
	}
	if o.Accepted || o.Withdrawn {
		return nil, domain.ErrOfferClosed
	}
	if !im.now().Before(o.Deadline) {
		return nil, domain.ErrOfferExpired
	}

	amount, err := domain.ParseAmount(o.Amount)
	if err != nil {
		return nil, err
	}

	receipt, err := im.settlementUC.Settle(ctx, settlement.SettleParams{
		Asset:      custody.AssetId{Collection: l.Collection, TokenId: l.TokenId},
		Seller:     l.Seller,
		Buyer:      o.Buyer,
		GrossPrice: amount,
		Source:     settlement.SourceEscrow,
	})
	if err != nil {
		return nil, err
	}

	if err := im.offerRepo.Update(ctx, id, index, listing.OfferPatchable{Accepted: ptr.Bool(true)}); err != nil {
		ctx.WithField("err", err).Error("failed to offerRepo.Update")
		return nil, err
	}
	if err := im.listingRepo.Update(ctx, id, listing.Patchable{IsActive: ptr.Bool(false)}); err != nil {
		ctx.WithField("err", err).Error("failed to listingRepo.Update")
		return nil, err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:         event.TypeOfferAccepted,
		ListingId:    &id,
		OfferIndex:   &index,
		Collection:   l.Collection,
		TokenId:      l.TokenId,
		Account:      o.Buyer,
		CounterParty: l.Seller,
		Amount:       o.Amount,
	})

	return receipt, nil
}

func (im *impl) WithdrawOffer(ctx bCtx.Ctx, id int64, index int, caller domain.Address) error {
	im.keyLock.Lock(listingKey(id))
	defer im.keyLock.Unlock(listingKey(id))

	o, err := im.offerRepo.FindOne(ctx, id, index)
	if err != nil {
		return err
	}
	if !o.Buyer.Equals(caller) {
		return domain.ErrAuthorization
	}
	if o.Accepted || o.Withdrawn {
		return domain.ErrOfferClosed
	}

	amount, err := domain.ParseAmount(o.Amount)
	if err != nil {
		return err
	}

	if err := im.ledger.Apply(ctx, wallet.Entry{
		From: domain.EscrowAddress, To: o.Buyer, Amount: amount, Memo: fmt.Sprintf("withdraw offer %d/%d", id, index),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to ledger.Apply")
		return err
	}

	if err := im.offerRepo.Update(ctx, id, index, listing.OfferPatchable{Withdrawn: ptr.Bool(true)}); err != nil {
		ctx.WithField("err", err).Error("failed to offerRepo.Update")
		return err
	}

	im.emit(ctx, &event.MarketEvent{
		Type:       event.TypeOfferWithdrawn,
		ListingId:  &id,
		OfferIndex: &index,
		Account:    o.Buyer,
		Amount:     o.Amount,
	})

	return nil
}

func (im *impl) Get(ctx bCtx.Ctx, id int64) (*listing.Listing, []*listing.Offer, error) {
	l, err := im.listingRepo.FindOne(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	offers, err := im.offerRepo.FindAll(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return l, offers, nil
}

func (im *impl) FindAll(ctx bCtx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
	return im.listingRepo.FindAll(ctx, opts...)
}
