package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/event"
	"github.com/nfthaus/goapi/domain/keys"
	"github.com/nfthaus/goapi/domain/royalty"
	"github.com/nfthaus/goapi/service/cache"
	"github.com/nfthaus/goapi/service/cache/provider/primitive"
	eventRepo "github.com/nfthaus/goapi/stores/event/repository"
	royaltyRepo "github.com/nfthaus/goapi/stores/royalty/repository"
)

const admin = domain.Address("0xadmin")

type royaltySuite struct {
	suite.Suite

	ctx    bCtx.Ctx
	events event.Repo
	uc     royalty.UseCase
}

func TestRoyaltySuite(t *testing.T) {
	suite.Run(t, new(royaltySuite))
}

func (s *royaltySuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.events = eventRepo.NewInMemoryEventRepo()
	s.uc = New(&RoyaltyUseCaseCfg{
		RoyaltyRepo:    royaltyRepo.NewInMemoryRoyaltyRepo(),
		EventRepo:      s.events,
		AdminAddresses: []domain.Address{admin},
		Cache: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   keys.PfxRoyalty,
			Cache: primitive.NewPrimitive("royalty", 1),
		}),
	})
}

func (s *royaltySuite) TestResolveWithoutRecord() {
	res, err := s.uc.Resolve(s.ctx, "0xCollection", "1")
	s.NoError(err)
	s.True(res.IsZero())
}

func (s *royaltySuite) TestTokenOverridesDefault() {
	s.NoError(s.uc.SetDefaultRoyalty(s.ctx, admin, "0xCollection", "0xArtist", 500))
	s.NoError(s.uc.SetRoyalty(s.ctx, admin, "0xCollection", "7", "0xCoArtist", 300))

	res, err := s.uc.Resolve(s.ctx, "0xCollection", "7")
	s.NoError(err)
	s.Equal(domain.Address("0xcoartist"), res.Receiver)
	s.Equal(int64(300), res.Bps)

	res, err = s.uc.Resolve(s.ctx, "0xCollection", "8")
	s.NoError(err)
	s.Equal(domain.Address("0xartist"), res.Receiver)
	s.Equal(int64(500), res.Bps)
}

func (s *royaltySuite) TestSetRoyaltyInvalidatesCache() {
	s.NoError(s.uc.SetRoyalty(s.ctx, admin, "0xCollection", "7", "0xArtist", 300))

	res, err := s.uc.Resolve(s.ctx, "0xCollection", "7")
	s.NoError(err)
	s.Equal(int64(300), res.Bps)

	s.NoError(s.uc.SetRoyalty(s.ctx, admin, "0xCollection", "7", "0xArtist", 400))

	res, err = s.uc.Resolve(s.ctx, "0xCollection", "7")
	s.NoError(err)
	s.Equal(int64(400), res.Bps)
}

func (s *royaltySuite) TestRoyaltyCeiling() {
	s.NoError(s.uc.SetDefaultRoyalty(s.ctx, admin, "0xCollection", "0xArtist", 500))

	err := s.uc.SetDefaultRoyalty(s.ctx, admin, "0xCollection", "0xArtist", 2000)
	s.ErrorIs(err, domain.ErrRoyaltyTooHigh)

	err = s.uc.SetRoyalty(s.ctx, admin, "0xCollection", "7", "0xArtist", domain.MaxRoyaltyBps+1)
	s.ErrorIs(err, domain.ErrRoyaltyTooHigh)
}

func (s *royaltySuite) TestRequiresAdmin() {
	err := s.uc.SetDefaultRoyalty(s.ctx, "0xRando", "0xCollection", "0xArtist", 500)
	s.ErrorIs(err, domain.ErrNotAdmin)
}

func (s *royaltySuite) TestEmitsEvents() {
	s.NoError(s.uc.SetDefaultRoyalty(s.ctx, admin, "0xCollection", "0xArtist", 500))
	s.NoError(s.uc.SetRoyalty(s.ctx, admin, "0xCollection", "7", "0xArtist", 300))

	evts, err := s.events.FindAll(s.ctx, event.WithCollection("0xCollection"))
	s.NoError(err)
	s.Require().Len(evts, 2)
	s.Equal(event.TypeRoyaltySet, evts[0].Type)
	s.Equal(event.TypeDefaultRoyaltySet, evts[1].Type)
}
