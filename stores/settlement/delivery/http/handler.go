package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/settlement"
	authMiddleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	settlement settlement.UseCase
	receipts   settlement.ReceiptRepo
}

func New(e *echo.Echo, settlementUC settlement.UseCase, receiptRepo settlement.ReceiptRepo, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{settlementUC, receiptRepo}

	e.GET("/platform-fee", h.getPlatformFee)

	e.GET("/receipts", h.getReceipts)

	g := e.Group("/admin", authMiddleware.Auth(), authMiddleware.IsAdmin())

	g.PUT("/platform-fee", h.updatePlatformFee)

	g.POST("/withdraw-fees", h.withdrawFees)
}

func (h *handler) getPlatformFee(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	bps, err := h.settlement.PlatformFeeBps(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		PlatformFeeBps int64 `json:"platformFeeBps"`
	}{bps}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getReceipts(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	p := &struct {
		Seller *domain.Address `query:"seller"`
		Buyer  *domain.Address `query:"buyer"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if res, err := h.receipts.FindAll(ctx, p.Seller, p.Buyer); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) updatePlatformFee(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	p := &struct {
		Bps int64 `json:"bps"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.settlement.UpdatePlatformFee(ctx, caller, p.Bps); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) withdrawFees(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	amount, err := h.settlement.WithdrawFees(ctx, caller)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Amount string `json:"amount"`
	}{amount}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
