package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/auction"
	"github.com/nfthaus/goapi/service/query"
)

type counterDoc struct {
	Name string `bson:"name"`
	Seq  int64  `bson:"seq"`
}

type auctionRepoImpl struct {
	q query.Mongo
}

func NewAuctionRepo(q query.Mongo) auction.Repo {
	return &auctionRepoImpl{q}
}

func (im *auctionRepoImpl) nextId(ctx bCtx.Ctx) (int64, error) {
	doc := &counterDoc{}
	if err := im.q.Increment(ctx, domain.TableCounters, bson.M{"name": string(domain.TableAuctions)}, doc, "seq", 1); err != nil {
		ctx.WithField("err", err).Error("failed to q.Increment")
		return 0, err
	}
	return doc.Seq, nil
}

func (im *auctionRepoImpl) makeQuery(opts ...auction.FindAllOptionsFunc) (bson.M, auction.FindAllOptions, error) {
	options, err := auction.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}
	qry := bson.M{}

	if options.Collection != nil {
		qry["collection"] = *options.Collection
	}

	if options.Seller != nil {
		qry["seller"] = *options.Seller
	}

	if options.Finalized != nil {
		qry["finalized"] = *options.Finalized
	}

	return qry, options, nil
}

func (im *auctionRepoImpl) FindAll(ctx bCtx.Ctx, opts ...auction.FindAllOptionsFunc) ([]*auction.Auction, error) {
	qry, options, err := im.makeQuery(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("im.makeQuery failed")
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

	res := []*auction.Auction{}
	if err := im.q.Search(ctx, domain.TableAuctions, offset, limit, "-startTime", qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *auctionRepoImpl) FindOne(ctx bCtx.Ctx, id int64) (*auction.Auction, error) {
	a := &auction.Auction{}
	if err := im.q.FindOne(ctx, domain.TableAuctions, bson.M{"id": id}, a); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return a, nil
}

func (im *auctionRepoImpl) Insert(ctx bCtx.Ctx, a *auction.Auction) (int64, error) {
	id, err := im.nextId(ctx)
	if err != nil {
		return 0, err
	}

	a.Id = id
	a.LowerCase()
	if err := im.q.Insert(ctx, domain.TableAuctions, a); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to q.Insert")
		return 0, err
	}
	return id, nil
}

func (im *auctionRepoImpl) Update(ctx bCtx.Ctx, id int64, patchable auction.Patchable) error {
	if err := im.q.Patch(ctx, domain.TableAuctions, bson.M{"id": id}, patchable); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}
