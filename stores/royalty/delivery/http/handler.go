package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/royalty"
	authMiddleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	royalty royalty.UseCase
}

func New(e *echo.Echo, royaltyUC royalty.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{royaltyUC}

	g := e.Group("/royalties")

	g.GET("/:collection/:tokenId", h.resolve)

	g.POST("", h.set, authMiddleware.Auth(), authMiddleware.IsAdmin())
}

func (h *handler) resolve(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	collection := domain.Address(c.Param("collection"))
	tokenId := domain.TokenId(c.Param("tokenId"))

	if res, err := h.royalty.Resolve(ctx, collection, tokenId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

// set registers a per-token royalty, or the collection default when tokenId
// is omitted.
func (h *handler) set(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	p := &struct {
		Collection domain.Address  `json:"collection" validate:"required"`
		TokenId    *domain.TokenId `json:"tokenId"`
		Receiver   domain.Address  `json:"receiver" validate:"required"`
		Bps        int64           `json:"bps"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	var err error
	if p.TokenId != nil {
		err = h.royalty.SetRoyalty(ctx, caller, p.Collection, *p.TokenId, p.Receiver, p.Bps)
	} else {
		err = h.royalty.SetDefaultRoyalty(ctx, caller, p.Collection, p.Receiver, p.Bps)
	}
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, "ok")
}
