package repository

import (
	"sync"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
)

type inMemoryReceiptRepo struct {
	mu       sync.Mutex
	receipts []*settlement.Receipt
}

func NewInMemoryReceiptRepo() settlement.ReceiptRepo {
	return &inMemoryReceiptRepo{}
}

func (im *inMemoryReceiptRepo) Insert(ctx bCtx.Ctx, r *settlement.Receipt) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *r
	im.receipts = append(im.receipts, &clone)
	return nil
}

func (im *inMemoryReceiptRepo) FindAll(ctx bCtx.Ctx, seller *domain.Address, buyer *domain.Address) ([]*settlement.Receipt, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	res := []*settlement.Receipt{}
	for i := len(im.receipts) - 1; i >= 0; i-- {
		r := im.receipts[i]
		if seller != nil && !r.Seller.Equals(*seller) {
			continue
		}
		if buyer != nil && !r.Buyer.Equals(*buyer) {
			continue
		}
		clone := *r
		res = append(res, &clone)
	}
	return res, nil
}

type inMemoryFeeConfigRepo struct {
	mu  sync.Mutex
	cfg *settlement.FeeConfig
}

func NewInMemoryFeeConfigRepo() settlement.FeeConfigRepo {
	return &inMemoryFeeConfigRepo{}
}

func (im *inMemoryFeeConfigRepo) Get(ctx bCtx.Ctx) (*settlement.FeeConfig, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.cfg == nil {
		return &settlement.FeeConfig{PlatformFeeBps: domain.DefaultPlatformFeeBps}, nil
	}
	clone := *im.cfg
	return &clone, nil
}

func (im *inMemoryFeeConfigRepo) Set(ctx bCtx.Ctx, cfg *settlement.FeeConfig) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *cfg
	im.cfg = &clone
	return nil
}
