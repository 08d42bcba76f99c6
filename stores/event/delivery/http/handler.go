package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/delivery"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/event"
)

type handler struct {
	event event.Repo
}

func New(e *echo.Echo, eventRepo event.Repo) {
	h := &handler{eventRepo}

	e.GET("/activities", h.getAll)
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	p := &struct {
		Types      []string        `query:"type"`
		Account    *domain.Address `query:"account"`
		Collection *domain.Address `query:"collection"`
		ListingId  *int64          `query:"listingId"`
		AuctionId  *int64          `query:"auctionId"`
		Offset     int32           `query:"offset"`
		Limit      int32           `query:"limit"`
	}{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []event.FindAllOptionsFunc{}
	if len(p.Types) > 0 {
		types := make([]event.Type, 0, len(p.Types))
		for _, t := range p.Types {
			types = append(types, event.Type(t))
		}
		opts = append(opts, event.WithTypes(types...))
	}
	if p.Account != nil {
		opts = append(opts, event.WithAccount(*p.Account))
	}
	if p.Collection != nil {
		opts = append(opts, event.WithCollection(*p.Collection))
	}
	if p.ListingId != nil {
		opts = append(opts, event.WithListingId(*p.ListingId))
	}
	if p.AuctionId != nil {
		opts = append(opts, event.WithAuctionId(*p.AuctionId))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, event.WithPagination(p.Offset, p.Limit))
	}

	if res, err := h.event.FindAll(ctx, opts...); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}
