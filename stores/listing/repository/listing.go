package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/listing"
	"github.com/nfthaus/goapi/service/query"
)

type counterDoc struct {
	Name string `bson:"name"`
	Seq  int64  `bson:"seq"`
}

func nextId(ctx bCtx.Ctx, q query.Mongo, name string) (int64, error) {
	doc := &counterDoc{}
	if err := q.Increment(ctx, domain.TableCounters, bson.M{"name": name}, doc, "seq", 1); err != nil {
		ctx.WithFields(log.Fields{
			"err":  err,
			"name": name,
		}).Error("failed to q.Increment")
		return 0, err
	}
	return doc.Seq, nil
}

type listingRepoImpl struct {
	q query.Mongo
}

func NewListingRepo(q query.Mongo) listing.Repo {
	return &listingRepoImpl{q}
}

func (im *listingRepoImpl) makeQuery(opts ...listing.FindAllOptionsFunc) (bson.M, listing.FindAllOptions, error) {
	options, err := listing.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}
	qry := bson.M{}

	if options.Collection != nil {
		qry["collection"] = *options.Collection
	}

	if options.TokenId != nil {
		qry["tokenId"] = *options.TokenId
	}

	if options.Seller != nil {
		qry["seller"] = *options.Seller
	}

	if options.IsActive != nil {
		qry["isActive"] = *options.IsActive
	}

	return qry, options, nil
}

func (im *listingRepoImpl) FindAll(ctx bCtx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
	qry, options, err := im.makeQuery(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("im.makeQuery failed")
		return nil, err
	}

	offset := 0
	limit := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*listing.Listing{}
	if err := im.q.Search(ctx, domain.TableListings, offset, limit, "-createdAt", qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *listingRepoImpl) FindOne(ctx bCtx.Ctx, id int64) (*listing.Listing, error) {
	l := &listing.Listing{}
	if err := im.q.FindOne(ctx, domain.TableListings, bson.M{"id": id}, l); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return l, nil
}

func (im *listingRepoImpl) Insert(ctx bCtx.Ctx, l *listing.Listing) (int64, error) {
	id, err := nextId(ctx, im.q, string(domain.TableListings))
	if err != nil {
		return 0, err
	}

	l.Id = id
	l.LowerCase()
	if err := im.q.Insert(ctx, domain.TableListings, l); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to q.Insert")
		return 0, err
	}
	return id, nil
}

func (im *listingRepoImpl) Update(ctx bCtx.Ctx, id int64, patchable listing.Patchable) error {
	if err := im.q.Patch(ctx, domain.TableListings, bson.M{"id": id}, patchable); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}

type offerRepoImpl struct {
	q query.Mongo
}

func NewOfferRepo(q query.Mongo) listing.OfferRepo {
	return &offerRepoImpl{q}
}

func (im *offerRepoImpl) FindAll(ctx bCtx.Ctx, listingId int64) ([]*listing.Offer, error) {
	res := []*listing.Offer{}
	if err := im.q.Search(ctx, domain.TableOffers, 0, 0, "index", bson.M{"listingId": listingId}, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":       err,
			"listingId": listingId,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}

func (im *offerRepoImpl) FindOne(ctx bCtx.Ctx, listingId int64, index int) (*listing.Offer, error) {
	o := &listing.Offer{}
	if err := im.q.FindOne(ctx, domain.TableOffers, bson.M{"listingId": listingId, "index": index}, o); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return o, nil
}

func (im *offerRepoImpl) Insert(ctx bCtx.Ctx, o *listing.Offer) (int, error) {
	// callers hold the listing lock, count is stable here
	cnt, err := im.q.Count(ctx, domain.TableOffers, bson.M{"listingId": o.ListingId})
	if err != nil {
		ctx.WithField("err", err).Error("q.Count failed")
		return 0, err
	}

	o.Index = cnt
	o.Buyer = o.Buyer.ToLower()
	if err := im.q.Insert(ctx, domain.TableOffers, o); err != nil {
		ctx.WithFields(log.Fields{
			"err":       err,
			"listingId": o.ListingId,
		}).Error("failed to q.Insert")
		return 0, err
	}
	return cnt, nil
}

func (im *offerRepoImpl) Update(ctx bCtx.Ctx, listingId int64, index int, patchable listing.OfferPatchable) error {
	if err := im.q.Patch(ctx, domain.TableOffers, bson.M{"listingId": listingId, "index": index}, patchable); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":       err,
			"listingId": listingId,
			"index":     index,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}
