package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/service/query"
)

type receiptRepoImpl struct {
	q query.Mongo
}

func NewReceiptRepo(q query.Mongo) settlement.ReceiptRepo {
	return &receiptRepoImpl{q}
}

func (im *receiptRepoImpl) Insert(ctx bCtx.Ctx, r *settlement.Receipt) error {
	if err := im.q.Insert(ctx, domain.TableReceipts, r); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"asset": r.Asset,
		}).Error("failed to q.Insert")
		return err
	}
	return nil
}

func (im *receiptRepoImpl) FindAll(ctx bCtx.Ctx, seller *domain.Address, buyer *domain.Address) ([]*settlement.Receipt, error) {
	qry := bson.M{}
	if seller != nil {
		qry["seller"] = seller.ToLower()
	}
	if buyer != nil {
		qry["buyer"] = buyer.ToLower()
	}

	res := []*settlement.Receipt{}
	if err := im.q.Search(ctx, domain.TableReceipts, 0, 0, "-settledAt", qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}
