package repository

import (
	"sort"
	"sync"

	"github.com/nfthaus/goapi/base/counter"
	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/listing"
)

type inMemoryListingRepo struct {
	mu       sync.Mutex
	seq      *counter.Sequence
	listings map[int64]*listing.Listing
}

func NewInMemoryListingRepo() listing.Repo {
	return &inMemoryListingRepo{
		seq:      counter.NewSequence(),
		listings: map[int64]*listing.Listing{},
	}
}

func (im *inMemoryListingRepo) FindAll(ctx bCtx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
	options, err := listing.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	matched := []*listing.Listing{}
	for _, l := range im.listings {
		if options.Collection != nil && !l.Collection.Equals(*options.Collection) {
			continue
		}
		if options.TokenId != nil && l.TokenId != *options.TokenId {
			continue
		}
		if options.Seller != nil && !l.Seller.Equals(*options.Seller) {
			continue
		}
		if options.IsActive != nil && l.IsActive != *options.IsActive {
			continue
		}
		clone := *l
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Id > matched[j].Id })

	offset := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if offset >= len(matched) {
		return []*listing.Listing{}, nil
	}
	matched = matched[offset:]

	if options.Limit != nil && int(*options.Limit) < len(matched) {
		matched = matched[:int(*options.Limit)]
	}

	return matched, nil
}

func (im *inMemoryListingRepo) FindOne(ctx bCtx.Ctx, id int64) (*listing.Listing, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	l, ok := im.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (im *inMemoryListingRepo) Insert(ctx bCtx.Ctx, l *listing.Listing) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *l
	clone.Id = im.seq.Next()
	clone.LowerCase()
	im.listings[clone.Id] = &clone
	l.Id = clone.Id
	return clone.Id, nil
}

func (im *inMemoryListingRepo) Update(ctx bCtx.Ctx, id int64, patchable listing.Patchable) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	l, ok := im.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.IsActive != nil {
		l.IsActive = *patchable.IsActive
	}
	return nil
}

type inMemoryOfferRepo struct {
	mu     sync.Mutex
	offers map[int64][]*listing.Offer
}

func NewInMemoryOfferRepo() listing.OfferRepo {
	return &inMemoryOfferRepo{offers: map[int64][]*listing.Offer{}}
}

func (im *inMemoryOfferRepo) FindAll(ctx bCtx.Ctx, listingId int64) ([]*listing.Offer, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	res := make([]*listing.Offer, 0, len(im.offers[listingId]))
	for _, o := range im.offers[listingId] {
		clone := *o
		res = append(res, &clone)
	}
	return res, nil
}

func (im *inMemoryOfferRepo) FindOne(ctx bCtx.Ctx, listingId int64, index int) (*listing.Offer, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	offers := im.offers[listingId]
	if index < 0 || index >= len(offers) {
		return nil, domain.ErrNotFound
	}
	clone := *offers[index]
	return &clone, nil
}

func (im *inMemoryOfferRepo) Insert(ctx bCtx.Ctx, o *listing.Offer) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *o
	clone.Index = len(im.offers[o.ListingId])
	clone.Buyer = clone.Buyer.ToLower()
	im.offers[o.ListingId] = append(im.offers[o.ListingId], &clone)
	o.Index = clone.Index
	return clone.Index, nil
}

func (im *inMemoryOfferRepo) Update(ctx bCtx.Ctx, listingId int64, index int, patchable listing.OfferPatchable) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	offers := im.offers[listingId]
	if index < 0 || index >= len(offers) {
		return domain.ErrNotFound
	}
	if patchable.Accepted != nil {
		offers[index].Accepted = *patchable.Accepted
	}
	if patchable.Withdrawn != nil {
		offers[index].Withdrawn = *patchable.Withdrawn
	}
	return nil
}
