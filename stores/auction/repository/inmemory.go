package repository

import (
	"sort"
	"sync"

	"github.com/nfthaus/goapi/base/counter"
	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/auction"
)

type inMemoryAuctionRepo struct {
	mu       sync.Mutex
	seq      *counter.Sequence
	auctions map[int64]*auction.Auction
}

func NewInMemoryAuctionRepo() auction.Repo {
	return &inMemoryAuctionRepo{
		seq:      counter.NewSequence(),
		auctions: map[int64]*auction.Auction{},
	}
}

func (im *inMemoryAuctionRepo) FindAll(ctx bCtx.Ctx, opts ...auction.FindAllOptionsFunc) ([]*auction.Auction, error) {
	options, err := auction.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	matched := []*auction.Auction{}
	for _, a := range im.auctions {
		if options.Collection != nil && !a.Collection.Equals(*options.Collection) {
			continue
		}
		if options.Seller != nil && !a.Seller.Equals(*options.Seller) {
			continue
		}
		if options.Finalized != nil && a.Finalized != *options.Finalized {
			continue
		}
		clone := *a
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Id > matched[j].Id })

	offset := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if offset >= len(matched) {
		return []*auction.Auction{}, nil
	}
	matched = matched[offset:]

	if options.Limit != nil && int(*options.Limit) < len(matched) {
		matched = matched[:int(*options.Limit)]
	}

	return matched, nil
}

func (im *inMemoryAuctionRepo) FindOne(ctx bCtx.Ctx, id int64) (*auction.Auction, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	a, ok := im.auctions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (im *inMemoryAuctionRepo) Insert(ctx bCtx.Ctx, a *auction.Auction) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *a
	clone.Id = im.seq.Next()
	clone.LowerCase()
	im.auctions[clone.Id] = &clone
	a.Id = clone.Id
	return clone.Id, nil
}

func (im *inMemoryAuctionRepo) Update(ctx bCtx.Ctx, id int64, patchable auction.Patchable) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	a, ok := im.auctions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.HighestBidder != nil {
		a.HighestBidder = patchable.HighestBidder.ToLower()
	}
	if patchable.HighestBid != nil {
		a.HighestBid = *patchable.HighestBid
	}
	if patchable.Finalized != nil {
		a.Finalized = *patchable.Finalized
	}
	return nil
}
