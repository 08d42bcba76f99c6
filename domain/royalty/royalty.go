package royalty

import (
	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
)

// Record is a royalty registration. A record with a nil TokenId is the
// collection default; a record with a TokenId overrides the default for that
// token only.
type Record struct {
	Collection domain.Address  `json:"collection" bson:"collection"`
	TokenId    *domain.TokenId `json:"tokenId" bson:"tokenId,omitempty"`
	Receiver   domain.Address  `json:"receiver" bson:"receiver"`
	Bps        int64           `json:"bps" bson:"bps"`
}

func (r *Record) LowerCase() {
	r.Collection = r.Collection.ToLower()
	r.Receiver = r.Receiver.ToLower()
}

// Resolution is the royalty applied to a single sale. Zero value means no
// royalty.
type Resolution struct {
	Receiver domain.Address `json:"receiver"`
	Bps      int64          `json:"bps"`
}

func (r Resolution) IsZero() bool {
	return r.Receiver.IsEmpty() || r.Bps == 0
}

type FindAllOptions struct {
	Collection *domain.Address
	Receiver   *domain.Address
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

func WithReceiver(receiver domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Receiver = receiver.ToLowerPtr()
		return nil
	}
}

type Repo interface {
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Record, error)
	// FindOne returns the record for (collection, tokenId); tokenId == nil
	// addresses the collection default. Returns domain.ErrNotFound when no
	// record exists.
	FindOne(ctx ctx.Ctx, collection domain.Address, tokenId *domain.TokenId) (*Record, error)
	Upsert(ctx ctx.Ctx, record *Record) error
}

type UseCase interface {
	// Resolve prefers the per-token record over the collection default and
	// returns a zero Resolution when neither exists.
	Resolve(ctx ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (Resolution, error)
	SetRoyalty(ctx ctx.Ctx, caller domain.Address, collection domain.Address, tokenId domain.TokenId, receiver domain.Address, bps int64) error
	SetDefaultRoyalty(ctx ctx.Ctx, caller domain.Address, collection domain.Address, receiver domain.Address, bps int64) error
}
