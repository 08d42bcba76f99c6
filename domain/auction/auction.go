package auction

import (
	"time"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
)

type Mode uint8

const (
	ModeEnglish Mode = 0
	ModeDutch   Mode = 1
)

func (m Mode) Valid() bool {
	return m == ModeEnglish || m == ModeDutch
}

// Auction is a sale record for either mode. English auctions accumulate a
// monotonically increasing highest bid and are finalized after expiry. Dutch
// auctions hold no current price; it is always recomputed from elapsed time,
// and the first qualifying bid finalizes the auction in the same call.
type Auction struct {
	Id            int64          `json:"id" bson:"id"`
	Collection    domain.Address `json:"collection" bson:"collection"`
	TokenId       domain.TokenId `json:"tokenId" bson:"tokenId"`
	Seller        domain.Address `json:"seller" bson:"seller"`
	Mode          Mode           `json:"mode" bson:"mode"`
	StartPrice    string         `json:"startPrice" bson:"startPrice"`
	ReservePrice  string         `json:"reservePrice" bson:"reservePrice"`
	StartTime     time.Time      `json:"startTime" bson:"startTime"`
	Duration      time.Duration  `json:"duration" bson:"duration"`
	HighestBidder domain.Address `json:"highestBidder" bson:"highestBidder"`
	HighestBid    string         `json:"highestBid" bson:"highestBid"`
	Finalized     bool           `json:"finalized" bson:"finalized"`
}

func (a *Auction) LowerCase() {
	a.Collection = a.Collection.ToLower()
	a.Seller = a.Seller.ToLower()
	a.HighestBidder = a.HighestBidder.ToLower()
}

func (a *Auction) EndTime() time.Time {
	return a.StartTime.Add(a.Duration)
}

func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime())
}

type Patchable struct {
	HighestBidder *domain.Address `json:"highestBidder" bson:"highestBidder,omitempty"`
	HighestBid    *string         `json:"highestBid" bson:"highestBid,omitempty"`
	Finalized     *bool           `json:"finalized" bson:"finalized,omitempty"`
}

type FindAllOptions struct {
	Collection *domain.Address
	Seller     *domain.Address
	Finalized  *bool
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

func WithCollection(collection domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Collection = collection.ToLowerPtr()
		return nil
	}
}

func WithSeller(seller domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Seller = seller.ToLowerPtr()
		return nil
	}
}

func WithFinalized(finalized bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Finalized = &finalized
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
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Auction, error)
	FindOne(ctx ctx.Ctx, id int64) (*Auction, error)
	// Insert assigns and returns the new auction id.
	Insert(ctx ctx.Ctx, a *Auction) (int64, error)
	Update(ctx ctx.Ctx, id int64, patchable Patchable) error
}

// BidResult reports the outcome of a bid. Receipt is non-nil only for a
// Dutch bid, which settles and finalizes in the same call.
type BidResult struct {
	Auction *Auction            `json:"auction"`
	Receipt *settlement.Receipt `json:"receipt,omitempty"`
}

type UseCase interface {
	Create(ctx ctx.Ctx, seller, collection domain.Address, tokenId domain.TokenId, mode Mode, startPrice, reservePrice string, duration time.Duration) (*Auction, error)
	// CurrentPrice is the highest bid (or start price) for English mode and
	// the linearly decayed price for Dutch mode.
	CurrentPrice(ctx ctx.Ctx, id int64) (string, error)
	PlaceBid(ctx ctx.Ctx, id int64, bidder domain.Address, payment string) (*BidResult, error)
	// Finalize ends an expired English auction exactly once. If the reserve
	// was not met the highest bidder is refunded and no proceeds are
	// disbursed.
	Finalize(ctx ctx.Ctx, id int64, caller domain.Address) (*settlement.Receipt, error)
	Get(ctx ctx.Ctx, id int64) (*Auction, error)
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Auction, error)
}
