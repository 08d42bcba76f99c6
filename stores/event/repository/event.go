package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/service/query"
)

type eventRepoImpl struct {
	q query.Mongo
}

func NewEventRepo(q query.Mongo) event.Repo {
	return &eventRepoImpl{q}
}

func makeQuery(opts ...event.FindAllOptionsFunc) (bson.M, event.FindAllOptions, error) {
	options, err := event.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}
	qry := bson.M{}

	if len(options.Types) > 0 {
		qry["type"] = bson.M{"$in": options.Types}
	}

	if options.Account != nil {
		qry["account"] = *options.Account
	}

	if options.Collection != nil {
		qry["collection"] = *options.Collection
	}

	if options.ListingId != nil {
		qry["listingId"] = *options.ListingId
	}

	if options.AuctionId != nil {
		qry["auctionId"] = *options.AuctionId
	}

	return qry, options, nil
}

func (im *eventRepoImpl) Insert(ctx bCtx.Ctx, e *event.MarketEvent) error {
	if err := im.q.Insert(ctx, domain.TableMarketEvents, e); err != nil {
		ctx.WithFields(log.Fields{
			"err":  err,
			"type": e.Type,
		}).Error("failed to q.Insert")
		return err
	}
	return nil
}

func (im *eventRepoImpl) FindAll(ctx bCtx.Ctx, opts ...event.FindAllOptionsFunc) ([]*event.MarketEvent, error) {
	qry, options, err := makeQuery(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("event.GetFindAllOptions failed")
		return nil, err
	}

	offset := 0
	limit := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*event.MarketEvent{}
	if err := im.q.Search(ctx, domain.TableMarketEvents, offset, limit, "-time", qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}
