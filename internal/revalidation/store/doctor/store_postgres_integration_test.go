//go:build integration

package doctor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/store/doctor"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
	"revalid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *doctor.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = doctor.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func newTestDoctor(ref, body string, lastUpdated time.Time) *models.Doctor {
	return &models.Doctor{
		GmcRef:                 id.GmcRef(ref),
		FirstName:              "Jess",
		LastName:               "Khan",
		SubmissionDate:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		UnderNotice:            models.UnderNoticeYes,
		DesignatedBodyCode:     body,
		ExistsInGmc:            true,
		Status:                 models.DoctorStatusNotStarted,
		LastUpdatedDate:        lastUpdated,
		GmcLastUpdatedDateTime: lastUpdated,
	}
}

func (s *PostgresStoreSuite) TestUpsertAndGet() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.Run("missing doctor returns ErrNotFound", func() {
		got, err := s.store.Get(ctx, "7000001")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Nil(got)
	})

	s.Run("insert then update via upsert", func() {
		d := newTestDoctor("7000002", "1-AAAA", now)
		s.Require().NoError(s.store.Upsert(ctx, d))

		d.FirstName = "Jessamy"
		d.DesignatedBodyCode = "1-BBBB"
		s.Require().NoError(s.store.Upsert(ctx, d))

		got, err := s.store.Get(ctx, d.GmcRef)
		s.Require().NoError(err)
		s.Equal("Jessamy", got.FirstName)
		s.Equal("1-BBBB", got.DesignatedBodyCode)
		s.True(got.GmcLastUpdatedDateTime.Equal(now))
	})
}

func (s *PostgresStoreSuite) TestFindStale() {
	ctx := context.Background()
	cutoff := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Upsert(ctx, newTestDoctor("7000010", "1-AAAA", cutoff.Add(-time.Hour))))
	s.Require().NoError(s.store.Upsert(ctx, newTestDoctor("7000011", "1-AAAA", cutoff)))
	s.Require().NoError(s.store.Upsert(ctx, newTestDoctor("7000012", "1-BBBB", cutoff.Add(-time.Hour))))

	stale, err := s.store.FindStale(ctx, "1-AAAA", cutoff)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Equal(id.GmcRef("7000010"), stale[0].GmcRef)
}

func (s *PostgresStoreSuite) TestDisconnect() {
	ctx := context.Background()
	stamped := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)

	s.Run("guard holds against the committed row", func() {
		d := newTestDoctor("7000020", "1-AAAA", stamped)
		s.Require().NoError(s.store.Upsert(ctx, d))

		s.Require().NoError(s.store.Disconnect(ctx, d.GmcRef, "1-AAAA", stamped.Add(time.Hour)))

		got, err := s.store.Get(ctx, d.GmcRef)
		s.Require().NoError(err)
		s.Empty(got.DesignatedBodyCode)
		s.False(got.ExistsInGmc)
	})

	s.Run("guard refuses after a newer reassignment", func() {
		d := newTestDoctor("7000021", "1-AAAA", stamped)
		s.Require().NoError(s.store.Upsert(ctx, d))

		d.DesignatedBodyCode = "1-BBBB"
		d.GmcLastUpdatedDateTime = stamped.Add(2 * time.Hour)
		s.Require().NoError(s.store.Upsert(ctx, d))

		err := s.store.Disconnect(ctx, d.GmcRef, "1-AAAA", stamped.Add(time.Hour))
		s.Require().ErrorIs(err, sentinel.ErrStaleWrite)

		got, err := s.store.Get(ctx, d.GmcRef)
		s.Require().NoError(err)
		s.Equal("1-BBBB", got.DesignatedBodyCode)
	})
}

// TestDisconnectRace races a sweep's disconnect against a reassigning upsert
// on the real database. The doctor must never end disconnected when the
// reassignment carries the newer timestamp.
func (s *PostgresStoreSuite) TestDisconnectRace() {
	ctx := context.Background()
	stamped := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		s.Require().NoError(s.postgres.Truncate(ctx))

		ref := id.GmcRef("7000030")
		s.Require().NoError(s.store.Upsert(ctx, newTestDoctor(ref.String(), "1-AAAA", stamped)))

		reassigned := newTestDoctor(ref.String(), "1-BBBB", stamped.Add(2*time.Hour))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.store.Disconnect(ctx, ref, "1-AAAA", stamped.Add(time.Hour))
		}()
		go func() {
			defer wg.Done()
			_ = s.store.Upsert(ctx, reassigned)
		}()
		wg.Wait()

		got, err := s.store.Get(ctx, ref)
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Equal("1-BBBB", got.DesignatedBodyCode)
	}
}
