package event

import (
	"time"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
)

type Type string

const (
	TypeItemListed         Type = "itemListed"
	TypeItemSold           Type = "itemSold"
	TypeListingCancelled   Type = "listingCancelled"
	TypeOfferMade          Type = "offerMade"
	TypeOfferAccepted      Type = "offerAccepted"
	TypeOfferWithdrawn     Type = "offerWithdrawn"
	TypeAuctionCreated     Type = "auctionCreated"
	TypeBidPlaced          Type = "bidPlaced"
	TypeAuctionFinalized   Type = "auctionFinalized"
	TypeRoyaltySet         Type = "royaltySet"
	TypeDefaultRoyaltySet  Type = "defaultRoyaltySet"
	TypePlatformFeeUpdated Type = "platformFeeUpdated"
	TypeFeesWithdrawn      Type = "feesWithdrawn"
)

// MarketEvent is one entry of the activity feed, emitted exactly once per
// successful state transition.
type MarketEvent struct {
	Type       Type           `json:"type" bson:"type"`
	ListingId  *int64         `json:"listingId,omitempty" bson:"listingId,omitempty"`
	AuctionId  *int64         `json:"auctionId,omitempty" bson:"auctionId,omitempty"`
	OfferIndex *int           `json:"offerIndex,omitempty" bson:"offerIndex,omitempty"`
	Collection domain.Address `json:"collection,omitempty" bson:"collection,omitempty"`
	TokenId    domain.TokenId `json:"tokenId,omitempty" bson:"tokenId,omitempty"`
	Account    domain.Address `json:"account,omitempty" bson:"account,omitempty"`
	// CounterParty is the other side of a trade: seller for a sale event,
	// previous bidder for an outbid refund.
	CounterParty domain.Address `json:"counterParty,omitempty" bson:"counterParty,omitempty"`
	Amount       string         `json:"amount,omitempty" bson:"amount,omitempty"`
	Bps          *int64         `json:"bps,omitempty" bson:"bps,omitempty"`
	Time         time.Time      `json:"time" bson:"time"`
}

type FindAllOptions struct {
	Types      []Type
	Account    *domain.Address
	Collection *domain.Address
	ListingId  *int64
	AuctionId  *int64
	Offset     *int32
	Limit      *int32
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithTypes(types ...Type) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Types = types
		return nil
	}
}

func WithAccount(account domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Account = account.ToLowerPtr()
		return nil
	}
}

func WithCollection(collection domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Collection = collection.ToLowerPtr()
		return nil
	}
}

func WithListingId(id int64) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ListingId = &id
		return nil
	}
}

func WithAuctionId(id int64) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.AuctionId = &id
		return nil
	}
}

func WithPagination(offset, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

type Repo interface {
	Insert(ctx ctx.Ctx, e *MarketEvent) error
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*MarketEvent, error)
}
