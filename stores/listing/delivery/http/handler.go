package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/listing"
	authMiddleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	listing listing.UseCase
}

func New(e *echo.Echo, listingUC listing.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{listingUC}

	gs := e.Group("/listings")

	gs.GET("", h.getAll)

	gs.POST("", h.create, authMiddleware.Auth())

	g := e.Group("/listings/:id")

	g.GET("", h.get)

	g.DELETE("", h.cancel, authMiddleware.Auth())

	g.POST("/buy", h.buy, authMiddleware.Auth())

	g.POST("/offers", h.makeOffer, authMiddleware.Auth())

	g.POST("/offers/:index/accept", h.acceptOffer, authMiddleware.Auth())

	g.DELETE("/offers/:index", h.withdrawOffer, authMiddleware.Auth())
}

func parseId(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func parseIndex(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("index"))
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	p := &struct {
		Collection *domain.Address `query:"collection"`
		TokenId    *domain.TokenId `query:"tokenId"`
		Seller     *domain.Address `query:"seller"`
		IsActive   *bool           `query:"isActive"`
		Offset     int32           `query:"offset"`
		Limit      int32           `query:"limit"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []listing.FindAllOptionsFunc{}
	if p.Collection != nil {
		opts = append(opts, listing.WithCollection(*p.Collection))
	}
	if p.TokenId != nil {
		opts = append(opts, listing.WithTokenId(*p.TokenId))
	}
	if p.Seller != nil {
		opts = append(opts, listing.WithSeller(*p.Seller))
	}
	if p.IsActive != nil {
		opts = append(opts, listing.WithIsActive(*p.IsActive))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, listing.WithPagination(p.Offset, p.Limit))
	}

	if res, err := h.listing.FindAll(ctx, opts...); err != nil {
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

	l, offers, err := h.listing.Get(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Listing *listing.Listing `json:"listing"`
		Offers  []*listing.Offer `json:"offers"`
	}{l, offers}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	seller := c.Get("address").(domain.Address)

	p := &struct {
		Collection domain.Address `json:"collection" validate:"required"`
		TokenId    domain.TokenId `json:"tokenId" validate:"required"`
		Price      string         `json:"price" validate:"required"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if l, err := h.listing.List(ctx, seller, p.Collection, p.TokenId, p.Price); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusCreated, l)
	}
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.listing.Cancel(ctx, id, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	buyer := c.Get("address").(domain.Address)

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

	if receipt, err := h.listing.Buy(ctx, id, buyer, p.Payment); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, receipt)
	}
}

func (h *handler) makeOffer(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	buyer := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}

	p := &struct {
		Payment  string `json:"payment" validate:"required"`
		Deadline int64  `json:"deadline" validate:"required"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if offer, err := h.listing.MakeOffer(ctx, id, buyer, p.Payment, time.Unix(p.Deadline, 0)); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusCreated, offer)
	}
}

func (h *handler) acceptOffer(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}
	index, err := parseIndex(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid index")
	}

	if receipt, err := h.listing.AcceptOffer(ctx, id, index, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, receipt)
	}
}

func (h *handler) withdrawOffer(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid id")
	}
	index, err := parseIndex(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid index")
	}

	if err := h.listing.WithdrawOffer(ctx, id, index, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
