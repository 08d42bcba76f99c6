package repository

import (
	"testing"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/custody"
)

type registrySuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	registry *InMemoryRegistry
	asset    custody.AssetId
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(registrySuite))
}

func (s *registrySuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.registry = NewInMemoryRegistry()
	s.asset = custody.AssetId{Collection: "0xCollection", TokenId: "1"}
	s.Require().NoError(s.registry.Mint(s.ctx, "0xAlice", s.asset))
}

func (s *registrySuite) TestOwnerOf() {
	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(domain.Address("0xalice"), owner)

	_, err = s.registry.OwnerOf(s.ctx, custody.AssetId{Collection: "0xCollection", TokenId: "404"})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *registrySuite) TestTransferRequiresApproval() {
	err := s.registry.Transfer(s.ctx, s.asset, "0xMarket", "0xAlice", "0xBob")
	s.ErrorIs(err, domain.ErrNotApproved)

	s.NoError(s.registry.SetApproval(s.ctx, "0xAlice", s.asset, "0xMarket"))
	s.NoError(s.registry.Transfer(s.ctx, s.asset, "0xMarket", "0xAlice", "0xBob"))

	owner, err := s.registry.OwnerOf(s.ctx, s.asset)
	s.NoError(err)
	s.Equal(domain.Address("0xbob"), owner)
}

func (s *registrySuite) TestTransferByOwner() {
	s.NoError(s.registry.Transfer(s.ctx, s.asset, "0xAlice", "0xAlice", "0xBob"))
}

func (s *registrySuite) TestTransferFromNonOwner() {
	s.NoError(s.registry.SetApproval(s.ctx, "0xAlice", s.asset, "0xMarket"))
	err := s.registry.Transfer(s.ctx, s.asset, "0xMarket", "0xBob", "0xCarol")
	s.ErrorIs(err, domain.ErrNotOwner)
}

func (s *registrySuite) TestApprovalClearedOnTransfer() {
	s.NoError(s.registry.SetApproval(s.ctx, "0xAlice", s.asset, "0xMarket"))
	s.NoError(s.registry.Transfer(s.ctx, s.asset, "0xMarket", "0xAlice", "0xBob"))

	approved, err := s.registry.IsApproved(s.ctx, s.asset, "0xMarket")
	s.NoError(err)
	s.False(approved)
}

func (s *registrySuite) TestSetApprovalByNonOwner() {
	err := s.registry.SetApproval(s.ctx, "0xBob", s.asset, "0xMarket")
	s.ErrorIs(err, domain.ErrNotOwner)
}
