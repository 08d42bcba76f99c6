package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/royalty"
	"github.com/nfthaus/goapi/service/query"
)

type royaltyRepoImpl struct {
	q query.Mongo
}

func NewRoyaltyRepo(q query.Mongo) royalty.Repo {
	return &royaltyRepoImpl{q}
}

func makeSelector(collection domain.Address, tokenId *domain.TokenId) bson.M {
	selector := bson.M{"collection": collection.ToLower()}
	if tokenId != nil {
		selector["tokenId"] = *tokenId
	} else {
		selector["tokenId"] = nil
	}
	return selector
}

func (im *royaltyRepoImpl) FindAll(ctx bCtx.Ctx, opts ...royalty.FindAllOptionsFunc) ([]*royalty.Record, error) {
	options, err := royalty.GetFindAllOptions(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("royalty.GetFindAllOptions failed")
		return nil, err
	}

	qry := bson.M{}
	if options.Collection != nil {
		qry["collection"] = *options.Collection
	}
	if options.Receiver != nil {
		qry["receiver"] = *options.Receiver
	}

	res := []*royalty.Record{}
	if err := im.q.Search(ctx, domain.TableRoyalties, 0, 0, "collection", qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *royaltyRepoImpl) FindOne(ctx bCtx.Ctx, collection domain.Address, tokenId *domain.TokenId) (*royalty.Record, error) {
	record := &royalty.Record{}
	if err := im.q.FindOne(ctx, domain.TableRoyalties, makeSelector(collection, tokenId), record); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return record, nil
}

func (im *royaltyRepoImpl) Upsert(ctx bCtx.Ctx, record *royalty.Record) error {
	record.LowerCase()
	if err := im.q.Upsert(ctx, domain.TableRoyalties, makeSelector(record.Collection, record.TokenId), record); err != nil {
		ctx.WithFields(log.Fields{
			"err":        err,
			"collection": record.Collection,
		}).Error("failed to q.Upsert")
		return err
	}
	return nil
}
