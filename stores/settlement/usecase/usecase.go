package usecase

import (
	"time"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/royalty"
	"github.com/nfthaus/goapi/domain/settlement"
	"github.com/nfthaus/goapi/domain/wallet"
)

type SettlementUseCaseCfg struct {
	ReceiptRepo   settlement.ReceiptRepo
	FeeConfigRepo settlement.FeeConfigRepo
	EventRepo     event.Repo
	RoyaltyUC     royalty.UseCase
	Ledger        wallet.Ledger
	Registry      custody.Registry
	// Operator is the engine's custody identity. Sellers approve it before
	// listing so Settle can move their assets.
	Operator domain.Address
	// Treasury receives withdrawn platform fees.
	Treasury       domain.Address
	AdminAddresses []domain.Address
	Now            func() time.Time
}

type impl struct {
	receiptRepo   settlement.ReceiptRepo
	feeConfigRepo settlement.FeeConfigRepo
	eventRepo     event.Repo
	royaltyUC     royalty.UseCase
	ledger        wallet.Ledger
	registry      custody.Registry
	operator      domain.Address
	treasury      domain.Address
	admins        []domain.Address
	now           func() time.Time
}

func New(cfg *SettlementUseCaseCfg) settlement.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &impl{
		receiptRepo:   cfg.ReceiptRepo,
		feeConfigRepo: cfg.FeeConfigRepo,
		eventRepo:     cfg.EventRepo,
		royaltyUC:     cfg.RoyaltyUC,
		ledger:        cfg.Ledger,
		registry:      cfg.Registry,
		operator:      cfg.Operator,
		treasury:      cfg.Treasury,
		admins:        cfg.AdminAddresses,
		now:           now,
	}
}

func (im *impl) isAdmin(caller domain.Address) bool {
	for _, admin := range im.admins {
		if admin.Equals(caller) {
			return true
		}
	}
	return false
}

// Settle debits the gross price from the funds source, disburses the
// fee/royalty/seller split and hands custody to the buyer. The payment batch
// is reversed if the custody transfer fails, so either everything lands or
// nothing does.
func (im *impl) Settle(ctx bCtx.Ctx, params settlement.SettleParams) (*settlement.Receipt, error) {
	if params.Seller.IsEmpty() || params.Buyer.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if params.GrossPrice == nil || params.GrossPrice.Sign() <= 0 {
		return nil, domain.ErrPriceMustBePositive
	}

	owner, err := im.registry.OwnerOf(ctx, params.Asset)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"asset": params.Asset,
		}).Error("failed to registry.OwnerOf")
		return nil, err
	}
	if !owner.Equals(params.Seller) {
		return nil, domain.ErrNotOwner
	}
	if approved, err := im.registry.IsApproved(ctx, params.Asset, im.operator); err != nil {
		ctx.WithField("err", err).Error("failed to registry.IsApproved")
		return nil, err
	} else if !approved && !im.operator.Equals(params.Seller) {
		return nil, domain.ErrNotApproved
	}

	feeBps, err := im.PlatformFeeBps(ctx)
	if err != nil {
		return nil, err
	}
	resolution, err := im.royaltyUC.Resolve(ctx, params.Asset.Collection, params.Asset.TokenId)
	if err != nil {
		return nil, err
	}
	royaltyBps := resolution.Bps
	if resolution.IsZero() {
		royaltyBps = 0
	}

	proceeds := settlement.Split(params.GrossPrice, feeBps, royaltyBps)

	source := params.Buyer
	if params.Source == settlement.SourceEscrow {
		source = domain.EscrowAddress
	}

	entries := []wallet.Entry{}
	if proceeds.PlatformFee.Sign() > 0 {
		entries = append(entries, wallet.Entry{
			From: source, To: domain.FeePoolAddress, Amount: proceeds.PlatformFee, Memo: "platform fee",
		})
	}
	if proceeds.Royalty.Sign() > 0 {
		entries = append(entries, wallet.Entry{
			From: source, To: resolution.Receiver, Amount: proceeds.Royalty, Memo: "royalty",
		})
	}
	if proceeds.SellerProceeds.Sign() > 0 {
		entries = append(entries, wallet.Entry{
			From: source, To: params.Seller, Amount: proceeds.SellerProceeds, Memo: "seller proceeds",
		})
	}

	if err := im.ledger.Apply(ctx, entries...); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"asset": params.Asset,
		}).Error("failed to ledger.Apply")
		return nil, err
	}

	if err := im.registry.Transfer(ctx, params.Asset, im.operator, params.Seller, params.Buyer); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"asset": params.Asset,
		}).Error("failed to registry.Transfer, reversing payment")
		if rerr := im.ledger.Apply(ctx, wallet.Reverse(entries)...); rerr != nil {
			// balances and custody now disagree, needs operator attention
			ctx.WithField("err", rerr).Error("failed to reverse payment batch")
		}
		return nil, domain.ErrCustodyTransferFailed
	}

	receipt := &settlement.Receipt{
		Asset:           params.Asset,
		Seller:          params.Seller.ToLower(),
		Buyer:           params.Buyer.ToLower(),
		GrossPrice:      params.GrossPrice.String(),
		PlatformFee:     proceeds.PlatformFee.String(),
		Royalty:         proceeds.Royalty.String(),
		RoyaltyReceiver: resolution.Receiver.ToLower(),
		SellerProceeds:  proceeds.SellerProceeds.String(),
		SettledAt:       im.now(),
	}
	if err := im.receiptRepo.Insert(ctx, receipt); err != nil {
		// funds and custody already moved, the journal entry is best effort
		ctx.WithField("err", err).Error("failed to receiptRepo.Insert")
	}

	return receipt, nil
}

func (im *impl) PlatformFeeBps(ctx bCtx.Ctx) (int64, error) {
	cfg, err := im.feeConfigRepo.Get(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("failed to feeConfigRepo.Get")
		return 0, err
	}
	return cfg.PlatformFeeBps, nil
}

func (im *impl) UpdatePlatformFee(ctx bCtx.Ctx, caller domain.Address, bps int64) error {
	if !im.isAdmin(caller) {
		return domain.ErrNotAdmin
	}
	if bps < 0 || bps > domain.MaxPlatformFeeBps {
		return domain.ErrFeeTooHigh
	}

	if err := im.feeConfigRepo.Set(ctx, &settlement.FeeConfig{PlatformFeeBps: bps}); err != nil {
		ctx.WithField("err", err).Error("failed to feeConfigRepo.Set")
		return err
	}

	if err := im.eventRepo.Insert(ctx, &event.MarketEvent{
		Type:    event.TypePlatformFeeUpdated,
		Account: caller.ToLower(),
		Bps:     &bps,
		Time:    im.now(),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to eventRepo.Insert")
	}

	return nil
}

func (im *impl) WithdrawFees(ctx bCtx.Ctx, caller domain.Address) (string, error) {
	if !im.isAdmin(caller) {
		return "", domain.ErrNotAdmin
	}

	balance, err := im.ledger.BalanceOf(ctx, domain.FeePoolAddress)
	if err != nil {
		ctx.WithField("err", err).Error("failed to ledger.BalanceOf")
		return "", err
	}
	if balance.Sign() == 0 {
		return "0", nil
	}

	if err := im.ledger.Apply(ctx, wallet.Entry{
		From: domain.FeePoolAddress, To: im.treasury, Amount: balance, Memo: "fee withdrawal",
	}); err != nil {
		ctx.WithField("err", err).Error("failed to ledger.Apply")
		return "", err
	}

	if err := im.eventRepo.Insert(ctx, &event.MarketEvent{
		Type:    event.TypeFeesWithdrawn,
		Account: caller.ToLower(),
		Amount:  balance.String(),
		Time:    im.now(),
	}); err != nil {
		ctx.WithField("err", err).Error("failed to eventRepo.Insert")
	}

	return balance.String(), nil
}
