package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryRecommendationStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
}

func (s *MemoryStoreSuite) rec(ref string, submitted time.Time) *models.Recommendation {
	return &models.Recommendation{
		ID:                   id.NewRecommendationID(),
		GmcRef:               id.GmcRef(ref),
		Type:                 models.TypeRevalidate,
		Status:               models.StatusReadyToReview,
		ActualSubmissionDate: submitted,
	}
}

func (s *MemoryStoreSuite) TestFindByID() {
	ctx := context.Background()

	s.Run("missing recommendation returns ErrNotFound", func() {
		got, err := s.store.FindByID(ctx, id.NewRecommendationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Nil(got)
	})

	s.Run("save then find returns a copy", func() {
		r := s.rec("7000001", time.Now())
		r.Comments = []string{"first review"}
		s.Require().NoError(s.store.Save(ctx, r))

		got, err := s.store.FindByID(ctx, r.ID)
		s.NoError(err)
		s.Require().NotNil(got)

		got.Comments[0] = "mutated"
		again, err := s.store.FindByID(ctx, r.ID)
		s.NoError(err)
		s.Equal("first review", again.Comments[0])
	})
}

func (s *MemoryStoreSuite) TestFindLiveByDoctor() {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	s.Run("excludes resolved recommendations", func() {
		live := s.rec("7000010", base)
		resolved := s.rec("7000010", base.Add(time.Hour))
		resolved.Status = models.StatusSubmittedToGmc
		resolved.Outcome = models.OutcomeApproved

		s.Require().NoError(s.store.Save(ctx, live))
		s.Require().NoError(s.store.Save(ctx, resolved))

		got, err := s.store.FindLiveByDoctor(ctx, "7000010")
		s.NoError(err)
		s.Require().Len(got, 1)
		s.Equal(live.ID, got[0].ID)
	})

	s.Run("includes submitted recommendations still under review", func() {
		pending := s.rec("7000011", base)
		pending.Status = models.StatusSubmittedToGmc
		pending.Outcome = models.OutcomeUnderReview
		s.Require().NoError(s.store.Save(ctx, pending))

		got, err := s.store.FindLiveByDoctor(ctx, "7000011")
		s.NoError(err)
		s.Len(got, 1)
	})

	s.Run("orders newest first", func() {
		older := s.rec("7000012", base)
		newer := s.rec("7000012", base.Add(time.Hour))
		s.Require().NoError(s.store.Save(ctx, older))
		s.Require().NoError(s.store.Save(ctx, newer))

		got, err := s.store.FindLiveByDoctor(ctx, "7000012")
		s.NoError(err)
		s.Require().Len(got, 2)
		s.Equal(newer.ID, got[0].ID)
		s.Equal(older.ID, got[1].ID)
	})
}

func (s *MemoryStoreSuite) TestFindSubmitted() {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	draft := s.rec("7000020", base)

	pending := s.rec("7000021", base)
	pending.Status = models.StatusSubmittedToGmc
	pending.Outcome = models.OutcomeUnderReview

	resolved := s.rec("7000022", base)
	resolved.Status = models.StatusSubmittedToGmc
	resolved.Outcome = models.OutcomeRejected

	s.Require().NoError(s.store.Save(ctx, draft))
	s.Require().NoError(s.store.Save(ctx, pending))
	s.Require().NoError(s.store.Save(ctx, resolved))

	got, err := s.store.FindSubmitted(ctx)
	s.NoError(err)
	s.Require().Len(got, 1)
	s.Equal(pending.ID, got[0].ID)
}
