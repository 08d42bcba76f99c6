package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/service/query"
)

// feeConfigId pins the single config document.
const feeConfigId = "platformFee"

type feeConfigDoc struct {
	Id             string `bson:"configId"`
	PlatformFeeBps int64  `bson:"platformFeeBps"`
}

type feeConfigRepoImpl struct {
	q query.Mongo
}

func NewFeeConfigRepo(q query.Mongo) settlement.FeeConfigRepo {
	return &feeConfigRepoImpl{q}
}

func (im *feeConfigRepoImpl) Get(ctx bCtx.Ctx) (*settlement.FeeConfig, error) {
	doc := &feeConfigDoc{}
	if err := im.q.FindOne(ctx, domain.TableFeeConfigs, bson.M{"configId": feeConfigId}, doc); err == query.ErrNotFound {
		return &settlement.FeeConfig{PlatformFeeBps: domain.DefaultPlatformFeeBps}, nil
	} else if err != nil {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return &settlement.FeeConfig{PlatformFeeBps: doc.PlatformFeeBps}, nil
}

func (im *feeConfigRepoImpl) Set(ctx bCtx.Ctx, cfg *settlement.FeeConfig) error {
	doc := &feeConfigDoc{Id: feeConfigId, PlatformFeeBps: cfg.PlatformFeeBps}
	if err := im.q.Upsert(ctx, domain.TableFeeConfigs, bson.M{"configId": feeConfigId}, doc); err != nil {
		ctx.WithField("err", err).Error("q.Upsert failed")
		return err
	}
	return nil
}
