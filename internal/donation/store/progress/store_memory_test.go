package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

type InMemoryProgressStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryProgressStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryProgressStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryProgressStoreSuite))
}

func (s *InMemoryProgressStoreSuite) TestOnePerDonation() {
	ctx := context.Background()
	p := models.NewProgress(id.NewDonationID(), time.Now())

	s.Require().NoError(s.store.Create(ctx, p))
	s.Require().ErrorIs(s.store.Create(ctx, p), sentinel.ErrConflict)
}

func (s *InMemoryProgressStoreSuite) TestUpdatePersistsFlags() {
	ctx := context.Background()
	p := models.NewProgress(id.NewDonationID(), time.Now())
	s.Require().NoError(s.store.Create(ctx, p))

	p.PickupByDonor = true
	p.PickupByReceiver = true
	s.Require().NoError(s.store.Update(ctx, p))

	found, err := s.store.FindByDonation(ctx, p.DonationID)
	s.Require().NoError(err)
	s.True(found.PickupConfirmed())
	s.False(found.CompletionConfirmed())
}

func (s *InMemoryProgressStoreSuite) TestFindReturnsCopy() {
	ctx := context.Background()
	p := models.NewProgress(id.NewDonationID(), time.Now())
	s.Require().NoError(s.store.Create(ctx, p))

	found, err := s.store.FindByDonation(ctx, p.DonationID)
	s.Require().NoError(err)
	found.PickupByDonor = true

	again, err := s.store.FindByDonation(ctx, p.DonationID)
	s.Require().NoError(err)
	s.False(again.PickupByDonor)
}

func (s *InMemoryProgressStoreSuite) TestNotFound() {
	ctx := context.Background()
	missing := id.NewDonationID()

	_, err := s.store.FindByDonation(ctx, missing)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Update(ctx, models.NewProgress(missing, time.Now())), sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(ctx, missing), sentinel.ErrNotFound)
}

func (s *InMemoryProgressStoreSuite) TestDelete() {
	ctx := context.Background()
	p := models.NewProgress(id.NewDonationID(), time.Now())
	s.Require().NoError(s.store.Create(ctx, p))

	s.Require().NoError(s.store.Delete(ctx, p.DonationID))
	_, err := s.store.FindByDonation(ctx, p.DonationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
