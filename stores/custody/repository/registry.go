package repository

import (
	"sync"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
)

type approvalKey struct {
	asset custody.AssetId
	owner domain.Address
}

// InMemoryRegistry tracks asset custody and operator approvals. An approval
// belongs to (owner, asset) and is cleared when the asset changes hands.
type InMemoryRegistry struct {
	mu        sync.Mutex
	owners    map[custody.AssetId]domain.Address
	approvals map[approvalKey]domain.Address
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		owners:    map[custody.AssetId]domain.Address{},
		approvals: map[approvalKey]domain.Address{},
	}
}

func normalize(asset custody.AssetId) custody.AssetId {
	asset.Collection = asset.Collection.ToLower()
	return asset
}

// Mint seeds an asset under owner. Used by tests and bootstrap fixtures.
func (im *InMemoryRegistry) Mint(ctx bCtx.Ctx, owner domain.Address, asset custody.AssetId) error {
	if owner.IsEmpty() {
		return domain.ErrInvalidAddress
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.owners[normalize(asset)] = owner.ToLower()
	return nil
}

func (im *InMemoryRegistry) OwnerOf(ctx bCtx.Ctx, asset custody.AssetId) (domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	owner, ok := im.owners[normalize(asset)]
	if !ok {
		return domain.EmptyAddress, domain.ErrNotFound
	}
	return owner, nil
}

func (im *InMemoryRegistry) IsApproved(ctx bCtx.Ctx, asset custody.AssetId, operator domain.Address) (bool, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	asset = normalize(asset)
	owner, ok := im.owners[asset]
	if !ok {
		return false, domain.ErrNotFound
	}
	approved, ok := im.approvals[approvalKey{asset, owner}]
	return ok && approved.Equals(operator), nil
}

func (im *InMemoryRegistry) SetApproval(ctx bCtx.Ctx, owner domain.Address, asset custody.AssetId, operator domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	asset = normalize(asset)
	current, ok := im.owners[asset]
	if !ok {
		return domain.ErrNotFound
	}
	if !current.Equals(owner) {
		return domain.ErrNotOwner
	}

	key := approvalKey{asset, current}
	if operator.IsEmpty() {
		delete(im.approvals, key)
		return nil
	}
	im.approvals[key] = operator.ToLower()
	return nil
}

func (im *InMemoryRegistry) Transfer(ctx bCtx.Ctx, asset custody.AssetId, operator, from, to domain.Address) error {
	if to.IsEmpty() {
		return domain.ErrInvalidAddress
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	asset = normalize(asset)
	owner, ok := im.owners[asset]
	if !ok {
		return domain.ErrNotFound
	}
	if !owner.Equals(from) {
		ctx.WithFields(log.Fields{
			"asset": asset,
			"owner": owner,
			"from":  from,
		}).Warn("transfer from non-owner")
		return domain.ErrNotOwner
	}

	if !operator.Equals(owner) {
		approved, ok := im.approvals[approvalKey{asset, owner}]
		if !ok || !approved.Equals(operator) {
			return domain.ErrNotApproved
		}
	}

	delete(im.approvals, approvalKey{asset, owner})
	im.owners[asset] = to.ToLower()
	return nil
}
