package settlement

import (
	"math/big"
	"time"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
)

// FundsSource tells the engine where the gross price is debited from.
type FundsSource uint8

const (
	// SourceBuyer debits the buyer's ledger balance directly (fixed-price buy,
	// Dutch bid).
	SourceBuyer FundsSource = iota
	// SourceEscrow debits the engine escrow pot, which already holds the
	// gross amount (accepted offer, finalized English auction).
	SourceEscrow
)

type SettleParams struct {
	Asset  custody.AssetId
	Seller domain.Address
	Buyer  domain.Address
	// GrossPrice is the decimal wei sale price.
	GrossPrice *big.Int
	Source     FundsSource
}

// Receipt records one completed settlement.
type Receipt struct {
	Asset           custody.AssetId `json:"asset" bson:"asset"`
	Seller          domain.Address  `json:"seller" bson:"seller"`
	Buyer           domain.Address  `json:"buyer" bson:"buyer"`
	GrossPrice      string          `json:"grossPrice" bson:"grossPrice"`
	PlatformFee     string          `json:"platformFee" bson:"platformFee"`
	Royalty         string          `json:"royalty" bson:"royalty"`
	RoyaltyReceiver domain.Address  `json:"royaltyReceiver" bson:"royaltyReceiver"`
	SellerProceeds  string          `json:"sellerProceeds" bson:"sellerProceeds"`
	SettledAt       time.Time       `json:"settledAt" bson:"settledAt"`
}

// FeeConfig is the process-wide platform fee, mutated only by the admin.
type FeeConfig struct {
	PlatformFeeBps int64 `json:"platformFeeBps" bson:"platformFeeBps"`
}

type ReceiptRepo interface {
	Insert(ctx ctx.Ctx, r *Receipt) error
	FindAll(ctx ctx.Ctx, seller *domain.Address, buyer *domain.Address) ([]*Receipt, error)
}

type FeeConfigRepo interface {
	// Get returns the stored config, or the default when none was stored yet.
	Get(ctx ctx.Ctx) (*FeeConfig, error)
	Set(ctx ctx.Ctx, cfg *FeeConfig) error
}

type UseCase interface {
	// Settle performs the atomic asset-for-funds exchange shared by every
	// sale path. Either the custody transfer and all payment legs land, or
	// nothing does.
	Settle(ctx ctx.Ctx, params SettleParams) (*Receipt, error)
	PlatformFeeBps(ctx ctx.Ctx) (int64, error)
	UpdatePlatformFee(ctx ctx.Ctx, caller domain.Address, bps int64) error
	// WithdrawFees drains the accumulated fee pool to the admin treasury.
	WithdrawFees(ctx ctx.Ctx, caller domain.Address) (string, error)
}
