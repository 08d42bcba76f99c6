package usecase

import (
	"time"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/keys"
	"github.com/nfthaus/goapi/domain/royalty"
	"github.com/nfthaus/goapi/service/cache"
)

var timeNow = time.Now

type RoyaltyUseCaseCfg struct {
	RoyaltyRepo    royalty.Repo
	EventRepo      event.Repo
	AdminAddresses []domain.Address
	// Cache is optional. A set royalty is visible through Resolve at the
	// latest after the cache TTL.
	Cache cache.Service
}

type impl struct {
	royaltyRepo    royalty.Repo
	eventRepo      event.Repo
	adminAddresses []domain.Address
	cache          cache.Service
}

func New(cfg *RoyaltyUseCaseCfg) royalty.UseCase {
	return &impl{
		royaltyRepo:    cfg.RoyaltyRepo,
		eventRepo:      cfg.EventRepo,
		adminAddresses: cfg.AdminAddresses,
		cache:          cfg.Cache,
	}
}

func (im *impl) isAdmin(caller domain.Address) bool {
	for _, admin := range im.adminAddresses {
		if admin.Equals(caller) {
			return true
		}
	}
	return false
}

func resolutionKey(collection domain.Address, tokenId domain.TokenId) string {
	return keys.RedisKey(collection.ToLowerStr(), tokenId.String())
}

func (im *impl) Resolve(ctx bCtx.Ctx, collection domain.Address, tokenId domain.TokenId) (royalty.Resolution, error) {
	if im.cache == nil {
		return im.resolve(ctx, collection, tokenId)
	}

	res := &royalty.Resolution{}
	err := im.cache.GetByFunc(ctx, resolutionKey(collection, tokenId), res, func() (interface{}, error) {
		r, err := im.resolve(ctx, collection, tokenId)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})
	if err != nil {
		return royalty.Resolution{}, err
	}
	return *res, nil
}

func (im *impl) resolve(ctx bCtx.Ctx, collection domain.Address, tokenId domain.TokenId) (royalty.Resolution, error) {
	record, err := im.royaltyRepo.FindOne(ctx, collection, &tokenId)
	if err == domain.ErrNotFound {
		record, err = im.royaltyRepo.FindOne(ctx, collection, nil)
	}
	if err == domain.ErrNotFound {
		return royalty.Resolution{}, nil
	}
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":        err,
			"collection": collection,
			"tokenId":    tokenId,
		}).Error("failed to royaltyRepo.FindOne")
		return royalty.Resolution{}, err
	}
	return royalty.Resolution{Receiver: record.Receiver, Bps: record.Bps}, nil
}

func (im *impl) SetRoyalty(ctx bCtx.Ctx, caller domain.Address, collection domain.Address, tokenId domain.TokenId, receiver domain.Address, bps int64) error {
	if err := im.set(ctx, caller, &royalty.Record{
		Collection: collection,
		TokenId:    &tokenId,
		Receiver:   receiver,
		Bps:        bps,
	}); err != nil {
		return err
	}

	if im.cache != nil {
		if err := im.cache.Del(ctx, resolutionKey(collection, tokenId)); err != nil {
			ctx.WithField("err", err).Warn("cache.Del failed")
		}
	}

	if err := im.eventRepo.Insert(ctx, &event.MarketEvent{
		Type:       event.TypeRoyaltySet,
		Collection: collection.ToLower(),
		TokenId:    tokenId,
		Account:    receiver.ToLower(),
		Bps:        &bps,
		Time:       timeNow(),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to eventRepo.Insert")
	}

	return nil
}

func (im *impl) SetDefaultRoyalty(ctx bCtx.Ctx, caller domain.Address, collection domain.Address, receiver domain.Address, bps int64) error {
	if err := im.set(ctx, caller, &royalty.Record{
		Collection: collection,
		Receiver:   receiver,
		Bps:        bps,
	}); err != nil {
		return err
	}

	if err := im.eventRepo.Insert(ctx, &event.MarketEvent{
		Type:       event.TypeDefaultRoyaltySet,
		Collection: collection.ToLower(),
		Account:    receiver.ToLower(),
		Bps:        &bps,
		Time:       timeNow(),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to eventRepo.Insert")
	}

	return nil
}

func (im *impl) set(ctx bCtx.Ctx, caller domain.Address, record *royalty.Record) error {
	if !im.isAdmin(caller) {
		return domain.ErrNotAdmin
	}
	if record.Collection.IsEmpty() || record.Receiver.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	if record.Bps < 0 || record.Bps > domain.MaxRoyaltyBps {
		return domain.ErrRoyaltyTooHigh
	}

	if err := im.royaltyRepo.Upsert(ctx, record); err != nil {
		ctx.WithFields(log.Fields{
			"err":        err,
			"collection": record.Collection,
		}).Error("failed to royaltyRepo.Upsert")
		return err
	}
	return nil
}
