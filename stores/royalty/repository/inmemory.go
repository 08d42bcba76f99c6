package repository

import (
	"sync"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/royalty"
)

type recordKey struct {
	collection domain.Address
	tokenId    string
	isDefault  bool
}

type inMemoryRoyaltyRepo struct {
	mu      sync.Mutex
	records map[recordKey]*royalty.Record
}

func NewInMemoryRoyaltyRepo() royalty.Repo {
	return &inMemoryRoyaltyRepo{records: map[recordKey]*royalty.Record{}}
}

func makeKey(collection domain.Address, tokenId *domain.TokenId) recordKey {
	key := recordKey{collection: collection.ToLower(), isDefault: tokenId == nil}
	if tokenId != nil {
		key.tokenId = tokenId.String()
	}
	return key
}

func (im *inMemoryRoyaltyRepo) FindAll(ctx bCtx.Ctx, opts ...royalty.FindAllOptionsFunc) ([]*royalty.Record, error) {
	options, err := royalty.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	res := []*royalty.Record{}
	for _, r := range im.records {
		if options.Collection != nil && !r.Collection.Equals(*options.Collection) {
			continue
		}
		if options.Receiver != nil && !r.Receiver.Equals(*options.Receiver) {
			continue
		}
		clone := *r
		res = append(res, &clone)
	}
	return res, nil
}

func (im *inMemoryRoyaltyRepo) FindOne(ctx bCtx.Ctx, collection domain.Address, tokenId *domain.TokenId) (*royalty.Record, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	r, ok := im.records[makeKey(collection, tokenId)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (im *inMemoryRoyaltyRepo) Upsert(ctx bCtx.Ctx, record *royalty.Record) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *record
	clone.LowerCase()
	im.records[makeKey(clone.Collection, clone.TokenId)] = &clone
	return nil
}
