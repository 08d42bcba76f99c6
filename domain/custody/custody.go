package custody

import (
	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
)

// AssetId identifies one unit of an asset collection.
type AssetId struct {
	Collection domain.Address `json:"collection" bson:"collection"`
	TokenId    domain.TokenId `json:"tokenId" bson:"tokenId"`
}

// Registry is the engine's view of the external asset-ownership registry.
// The engine never owns asset logic; settlement is its only writer.
type Registry interface {
	OwnerOf(ctx ctx.Ctx, asset AssetId) (domain.Address, error)
	// IsApproved reports whether operator may move the asset on the owner's
	// behalf.
	IsApproved(ctx ctx.Ctx, asset AssetId, operator domain.Address) (bool, error)
	SetApproval(ctx ctx.Ctx, owner domain.Address, asset AssetId, operator domain.Address) error
	// Transfer moves custody from -> to. Fails with domain.ErrNotOwner or
	// domain.ErrNotApproved without moving anything.
	Transfer(ctx ctx.Ctx, asset AssetId, operator, from, to domain.Address) error
}
