package candidacy

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

type InMemoryCandidacyStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryCandidacyStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryCandidacyStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCandidacyStoreSuite))
}

func (s *InMemoryCandidacyStoreSuite) TestUniquenessPerPair() {
	ctx := context.Background()
	donationID := id.NewDonationID()
	applicant := id.UserID(uuid.New())

	c := &models.Candidacy{DonationID: donationID, ApplicantID: applicant, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, c))
	s.Require().ErrorIs(s.store.Create(ctx, c), sentinel.ErrConflict)

	// Same applicant on a different donation is fine.
	other := &models.Candidacy{DonationID: id.NewDonationID(), ApplicantID: applicant, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, other))
}

func (s *InMemoryCandidacyStoreSuite) TestFindAndDelete() {
	ctx := context.Background()
	donationID := id.NewDonationID()
	applicant := id.UserID(uuid.New())

	_, err := s.store.Find(ctx, donationID, applicant)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	c := &models.Candidacy{DonationID: donationID, ApplicantID: applicant, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.Find(ctx, donationID, applicant)
	s.Require().NoError(err)
	s.Equal(c, found)

	s.Require().NoError(s.store.Delete(ctx, donationID, applicant))
	s.Require().ErrorIs(s.store.Delete(ctx, donationID, applicant), sentinel.ErrNotFound)
}

func (s *InMemoryCandidacyStoreSuite) TestListOrdersByCreation() {
	ctx := context.Background()
	donationID := id.NewDonationID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	second := &models.Candidacy{DonationID: donationID, ApplicantID: id.UserID(uuid.New()), CreatedAt: base.Add(time.Minute)}
	first := &models.Candidacy{DonationID: donationID, ApplicantID: id.UserID(uuid.New()), CreatedAt: base}
	unrelated := &models.Candidacy{DonationID: id.NewDonationID(), ApplicantID: id.UserID(uuid.New()), CreatedAt: base}
	for _, c := range []*models.Candidacy{second, first, unrelated} {
		s.Require().NoError(s.store.Create(ctx, c))
	}

	list, err := s.store.ListByDonation(ctx, donationID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ApplicantID, list[0].ApplicantID)
	s.Equal(second.ApplicantID, list[1].ApplicantID)
}

func (s *InMemoryCandidacyStoreSuite) TestPurgeByDonation() {
	ctx := context.Background()
	donationID := id.NewDonationID()
	keep := &models.Candidacy{DonationID: id.NewDonationID(), ApplicantID: id.UserID(uuid.New()), CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, keep))
	for i := 0; i < 3; i++ {
		c := &models.Candidacy{DonationID: donationID, ApplicantID: id.UserID(uuid.New()), CreatedAt: time.Now()}
		s.Require().NoError(s.store.Create(ctx, c))
	}

	purged, err := s.store.PurgeByDonation(ctx, donationID)
	s.Require().NoError(err)
	s.Equal(3, purged)

	list, err := s.store.ListByDonation(ctx, donationID)
	s.Require().NoError(err)
	s.Empty(list)

	// Purging an empty donation is not an error.
	purged, err = s.store.PurgeByDonation(ctx, donationID)
	s.Require().NoError(err)
	s.Zero(purged)

	_, err = s.store.Find(ctx, keep.DonationID, keep.ApplicantID)
	s.Require().NoError(err)
}
