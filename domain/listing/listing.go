package listing

import (
	"time"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
)

// Listing is a standing fixed-price sale of one token. At most one active
// listing may exist per (collection, tokenId).
type Listing struct {
	Id         int64          `json:"id" bson:"id"`
	Collection domain.Address `json:"collection" bson:"collection"`
	TokenId    domain.TokenId `json:"tokenId" bson:"tokenId"`
	Seller     domain.Address `json:"seller" bson:"seller"`
	Price      string         `json:"price" bson:"price"`
	IsActive   bool           `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
}

func (l *Listing) LowerCase() {
	l.Collection = l.Collection.ToLower()
	l.Seller = l.Seller.ToLower()
}

// Offer is a buyer-funded bid attached to a listing. The escrowed Amount is
// immutable; only the accepted/withdrawn flags change. Offers are addressed
// by (listingId, insertion index).
type Offer struct {
	ListingId int64          `json:"listingId" bson:"listingId"`
	Index     int            `json:"index" bson:"index"`
	Buyer     domain.Address `json:"buyer" bson:"buyer"`
	Amount    string         `json:"amount" bson:"amount"`
	Deadline  time.Time      `json:"deadline" bson:"deadline"`
	Accepted  bool           `json:"accepted" bson:"accepted"`
	Withdrawn bool           `json:"withdrawn" bson:"withdrawn"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// Open reports whether the offer can still be accepted at time now.
func (o *Offer) Open(now time.Time) bool {
	return !o.Accepted && !o.Withdrawn && now.Before(o.Deadline)
}

type Patchable struct {
	IsActive *bool `json:"isActive" bson:"isActive,omitempty"`
}

type OfferPatchable struct {
	Accepted  *bool `json:"accepted" bson:"accepted,omitempty"`
	Withdrawn *bool `json:"withdrawn" bson:"withdrawn,omitempty"`
}

type FindAllOptions struct {
	Collection *domain.Address
	TokenId    *domain.TokenId
	Seller     *domain.Address
	IsActive   *bool
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

func WithTokenId(tokenId domain.TokenId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.TokenId = &tokenId
		return nil
	}
}

func WithSeller(seller domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Seller = seller.ToLowerPtr()
		return nil
	}
}

func WithIsActive(isActive bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.IsActive = &isActive
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
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Listing, error)
	FindOne(ctx ctx.Ctx, id int64) (*Listing, error)
	// Insert assigns and returns the new listing id.
	Insert(ctx ctx.Ctx, l *Listing) (int64, error)
	Update(ctx ctx.Ctx, id int64, patchable Patchable) error
}

type OfferRepo interface {
	// FindAll returns the offers of a listing in insertion order.
	FindAll(ctx ctx.Ctx, listingId int64) ([]*Offer, error)
	FindOne(ctx ctx.Ctx, listingId int64, index int) (*Offer, error)
	// Insert appends the offer and returns its index.
	Insert(ctx ctx.Ctx, o *Offer) (int, error)
	Update(ctx ctx.Ctx, listingId int64, index int, patchable OfferPatchable) error
}

type UseCase interface {
	List(ctx ctx.Ctx, seller, collection domain.Address, tokenId domain.TokenId, price string) (*Listing, error)
	// Buy settles the listing at its listed price. payment is the value the
	// buyer attaches; any excess over the price stays with the buyer.
	Buy(ctx ctx.Ctx, id int64, buyer domain.Address, payment string) (*settlement.Receipt, error)
	Cancel(ctx ctx.Ctx, id int64, caller domain.Address) error
	// MakeOffer escrows payment until the offer is accepted or withdrawn.
	MakeOffer(ctx ctx.Ctx, id int64, buyer domain.Address, payment string, deadline time.Time) (*Offer, error)
	AcceptOffer(ctx ctx.Ctx, id int64, index int, caller domain.Address) (*settlement.Receipt, error)
	// WithdrawOffer refunds the escrowed amount to the offer's buyer. Allowed
	// any time before acceptance.
	WithdrawOffer(ctx ctx.Ctx, id int64, index int, caller domain.Address) error
	Get(ctx ctx.Ctx, id int64) (*Listing, []*Offer, error)
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Listing, error)
}
