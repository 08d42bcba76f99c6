package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/base/pricefmt"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/auction"
	authMiddleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	auction auction.UseCase
}

func New(e *echo.Echo, auctionUC auction.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{auctionUC}

	gs := e.Group("/auctions")

	gs.GET("", h.getAll)

	gs.POST("", h.create, authMiddleware.Auth())

	g := e.Group("/auctions/:id")

	g.GET("", h.get)

	g.GET("/price", h.getPrice)

	g.POST("/bids", h.placeBid, authMiddleware.Auth())

	g.POST("/finalize", h.finalize, authMiddleware.Auth())
}

func parseId(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	p := &struct {
		Collection *domain.Address `query:"collection"`
		Seller     *domain.Address `query:"seller"`
		Finalized  *bool           `query:"finalized"`
		Offset     int32           `query:"offset"`
		Limit      int32           `query:"limit"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []auction.FindAllOptionsFunc{}
	if p.Collection != nil {
		opts = append(opts, auction.WithCollection(*p.Collection))
	}
	if p.Seller != nil {
		opts = append(opts, auction.WithSeller(*p.Seller))
	}
	if p.Finalized != nil {
		opts = append(opts, auction.WithFinalized(*p.Finalized))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, auction.WithPagination(p.Offset, p.Limit))
	}

	if res, err := h.auction.FindAll(ctx, opts...); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	if a, err := h.auction.Get(ctx, id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, a)
	}
}

func (h *handler) getPrice(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	price, err := h.auction.CurrentPrice(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	wei, err := domain.ParseAmount(price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Price        string `json:"price"`
		DisplayPrice string `json:"displayPrice"`
	}{price, pricefmt.ToDisplay(wei)}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	seller := c.Get("address").(domain.Address)

	p := &struct {
		Collection   domain.Address `json:"collection" validate:"required"`
		TokenId      domain.TokenId `json:"tokenId" validate:"required"`
		Mode         uint8          `json:"mode"`
		StartPrice   string         `json:"startPrice" validate:"required"`
		ReservePrice string         `json:"reservePrice" validate:"required"`
		DurationSec  int64          `json:"durationSec" validate:"required"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	a, err := h.auction.Create(ctx, seller, p.Collection, p.TokenId, auction.Mode(p.Mode), p.StartPrice, p.ReservePrice, time.Duration(p.DurationSec)*time.Second)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, a)
}

func (h *handler) placeBid(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	bidder := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	p := &struct {
		Payment string `json:"payment" validate:"required"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if res, err := h.auction.PlaceBid(ctx, id, bidder, p.Payment); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) finalize(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	if receipt, err := h.auction.Finalize(ctx, id, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, receipt)
	}
}
