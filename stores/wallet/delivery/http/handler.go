package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/base/pricefmt"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/wallet"
	authMiddleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	ledger wallet.Ledger
}

func New(e *echo.Echo, ledger wallet.Ledger, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{ledger}

	g := e.Group("/wallet", authMiddleware.Auth())

	g.GET("/balance", h.getBalance)

	g.POST("/deposit", h.deposit)

	g.POST("/withdraw", h.withdraw)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	balance, err := h.ledger.BalanceOf(ctx, account)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, balanceResp(account, balance))
}

func (h *handler) deposit(c echo.Context) error {
	return h.move(c, h.ledger.Deposit)
}

func (h *handler) withdraw(c echo.Context) error {
	return h.move(c, h.ledger.Withdraw)
}

func (h *handler) move(c echo.Context, op func(bCtx.Ctx, domain.Address, *big.Int) error) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	p := &struct {
		Amount string `json:"amount" validate:"required"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	amount, err := domain.ParseAmount(p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	if err := op(ctx, account, amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	balance, err := h.ledger.BalanceOf(ctx, account)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balanceResp(account, balance))
}

func balanceResp(account domain.Address, balance *big.Int) interface{} {
	return struct {
		Account        domain.Address `json:"account"`
		Balance        string         `json:"balance"`
		DisplayBalance string         `json:"displayBalance"`
	}{account.ToLower(), balance.String(), pricefmt.ToDisplay(balance)}
}
