package repository

import (
	"sync"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain/event"
)

// inMemoryEventRepo keeps the activity feed in insertion order. FindAll
// returns newest first like the mongo repo.
type inMemoryEventRepo struct {
	mu     sync.Mutex
	events []*event.MarketEvent
}

func NewInMemoryEventRepo() event.Repo {
	return &inMemoryEventRepo{}
}

func (im *inMemoryEventRepo) Insert(ctx bCtx.Ctx, e *event.MarketEvent) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	clone := *e
	im.events = append(im.events, &clone)
	return nil
}

func (im *inMemoryEventRepo) FindAll(ctx bCtx.Ctx, opts ...event.FindAllOptionsFunc) ([]*event.MarketEvent, error) {
	options, err := event.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	matched := []*event.MarketEvent{}
	for i := len(im.events) - 1; i >= 0; i-- {
		e := im.events[i]
		if !matches(e, options) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}

	offset := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if offset >= len(matched) {
		return []*event.MarketEvent{}, nil
	}
	matched = matched[offset:]

	if options.Limit != nil && int(*options.Limit) < len(matched) {
		matched = matched[:int(*options.Limit)]
	}

	return matched, nil
}

func matches(e *event.MarketEvent, options event.FindAllOptions) bool {
	if len(options.Types) > 0 {
		found := false
		for _, t := range options.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if options.Account != nil && !e.Account.Equals(*options.Account) {
		return false
	}
	if options.Collection != nil && !e.Collection.Equals(*options.Collection) {
		return false
	}
	if options.ListingId != nil && (e.ListingId == nil || *e.ListingId != *options.ListingId) {
		return false
	}
	if options.AuctionId != nil && (e.AuctionId == nil || *e.AuctionId != *options.AuctionId) {
		return false
	}
	return true
}
