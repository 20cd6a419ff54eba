package donation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

type InMemoryDonationStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryDonationStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryDonationStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDonationStoreSuite))
}

func newTestDonation(number int64, createdAt time.Time) *models.Donation {
	return &models.Donation{
		ID:          id.NewDonationID(),
		Number:      number,
		Title:       "Oak bookshelf",
		Description: "Solid oak, five shelves.",
		Category:    models.CategoryFurniture,
		PickupType:  models.PickupAtLocation,
		AddressLine: "12 Elm Street",
		City:        "Springfield",
		State:       "IL",
		PostalCode:  "62704",
		Status:      models.StatusOpen,
		DonorID:     id.UserID(uuid.New()),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func (s *InMemoryDonationStoreSuite) TestCRUD() {
	ctx := context.Background()

	s.Run("create then find returns an equal record", func() {
		d := newTestDonation(1, time.Now())
		s.Require().NoError(s.store.Create(ctx, d))

		found, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(d, found)
	})

	s.Run("create twice conflicts", func() {
		d := newTestDonation(2, time.Now())
		s.Require().NoError(s.store.Create(ctx, d))
		s.Require().ErrorIs(s.store.Create(ctx, d), sentinel.ErrConflict)
	})

	s.Run("find unknown returns ErrNotFound", func() {
		_, err := s.store.FindByID(ctx, id.NewDonationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("update replaces the record", func() {
		d := newTestDonation(3, time.Now())
		s.Require().NoError(s.store.Create(ctx, d))

		d.Title = "Oak bookshelf (reserved)"
		s.Require().NoError(s.store.Update(ctx, d))

		found, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal("Oak bookshelf (reserved)", found.Title)
	})

	s.Run("update unknown returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Update(ctx, newTestDonation(4, time.Now())), sentinel.ErrNotFound)
	})

	s.Run("delete makes the record unfindable", func() {
		d := newTestDonation(5, time.Now())
		s.Require().NoError(s.store.Create(ctx, d))
		s.Require().NoError(s.store.Delete(ctx, d.ID))

		_, err := s.store.FindByID(ctx, d.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(ctx, d.ID), sentinel.ErrNotFound)
	})
}

func (s *InMemoryDonationStoreSuite) TestFindReturnsCopy() {
	ctx := context.Background()
	d := newTestDonation(1, time.Now())
	s.Require().NoError(s.store.Create(ctx, d))

	found, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	found.Title = "mutated by caller"

	again, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("Oak bookshelf", again.Title)
}

func (s *InMemoryDonationStoreSuite) TestListFiltersAndPages() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := newTestDonation(1, base)
	newer := newTestDonation(2, base.Add(time.Hour))
	clothing := newTestDonation(3, base.Add(2*time.Hour))
	clothing.Category = models.CategoryClothing
	clothing.City = "Shelbyville"
	inProgress := newTestDonation(4, base.Add(3*time.Hour))
	inProgress.Status = models.StatusInProgress

	for _, d := range []*models.Donation{older, newer, clothing, inProgress} {
		s.Require().NoError(s.store.Create(ctx, d))
	}

	s.Run("orders newest-first", func() {
		items, total, err := s.store.List(ctx, models.ListFilter{})
		s.Require().NoError(err)
		s.Equal(4, total)
		s.Require().Len(items, 4)
		s.Equal(int64(4), items[0].Number)
		s.Equal(int64(1), items[3].Number)
	})

	s.Run("filters by status", func() {
		status := models.StatusInProgress
		items, total, err := s.store.List(ctx, models.ListFilter{Status: &status})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(items, 1)
		s.Equal(inProgress.ID, items[0].ID)
	})

	s.Run("filters by category", func() {
		category := models.CategoryClothing
		items, _, err := s.store.List(ctx, models.ListFilter{Category: &category})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(clothing.ID, items[0].ID)
	})

	s.Run("city filter is case-insensitive", func() {
		items, _, err := s.store.List(ctx, models.ListFilter{City: "shelbyville"})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(clothing.ID, items[0].ID)
	})

	s.Run("pages with total preserved", func() {
		items, total, err := s.store.List(ctx, models.ListFilter{Page: 2, Limit: 3})
		s.Require().NoError(err)
		s.Equal(4, total)
		s.Require().Len(items, 1)
		s.Equal(int64(1), items[0].Number)
	})

	s.Run("page past the end is empty", func() {
		items, total, err := s.store.List(ctx, models.ListFilter{Page: 9, Limit: 10})
		s.Require().NoError(err)
		s.Equal(4, total)
		s.Empty(items)
	})
}
