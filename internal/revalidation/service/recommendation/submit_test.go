package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"revalid/internal/reference"
	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	doctorstore "revalid/internal/revalidation/store/doctor"
	recstore "revalid/internal/revalidation/store/recommendation"
	snapstore "revalid/internal/revalidation/store/snapshot"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/requestcontext"
)

type SubmitSuite struct {
	suite.Suite
	doctors   *doctorstore.InMemoryDoctorStore
	recs      *recstore.InMemoryRecommendationStore
	archive   *snapstore.InMemorySnapshotArchive
	authority *fakeAuthority
	service   *Service

	doctor  *models.Doctor
	rec     *models.Recommendation
	officer ports.SubmittingOfficer
}

func TestSubmitSuite(t *testing.T) {
	suite.Run(t, new(SubmitSuite))
}

func (s *SubmitSuite) SetupTest() {
	s.doctors = doctorstore.New()
	s.recs = recstore.New()
	s.archive = snapstore.New()
	s.authority = &fakeAuthority{}
	s.officer = ports.SubmittingOfficer{FirstName: "Ada", LastName: "Boateng", Email: "ro@example.org"}

	var err error
	s.service, err = New(s.doctors, s.recs, s.archive, s.authority, reference.NewDeferralReasons())
	s.Require().NoError(err)

	ctx := context.Background()
	s.doctor = &models.Doctor{
		GmcRef:             "7000100",
		SubmissionDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		UnderNotice:        models.UnderNoticeYes,
		DesignatedBodyCode: "1-AAAA",
		ExistsInGmc:        true,
	}
	s.Require().NoError(s.doctors.Upsert(ctx, s.doctor))

	s.rec, err = s.service.Save(ctx, SaveCommand{
		GmcRef: s.doctor.GmcRef,
		Type:   models.TypeRevalidate,
		Admin:  "case.admin@example.org",
	})
	s.Require().NoError(err)
}

func (s *SubmitSuite) TestSubmit() {
	s.Run("unknown doctor returns not found", func() {
		_, err := s.service.Submit(context.Background(), s.rec.ID, "7999999", s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown recommendation returns not found", func() {
		_, err := s.service.Submit(context.Background(), id.NewRecommendationID(), s.doctor.GmcRef, s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("recommendation of another doctor is refused", func() {
		other := &models.Doctor{GmcRef: "7000101", UnderNotice: models.UnderNoticeYes}
		s.Require().NoError(s.doctors.Upsert(context.Background(), other))

		_, err := s.service.Submit(context.Background(), s.rec.ID, other.GmcRef, s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("regulator refusal leaves everything untouched", func() {
		s.authority.submitResult = &ports.SubmitResult{ReturnCode: "90", Message: "Invalid credentials"}

		_, err := s.service.Submit(context.Background(), s.rec.ID, s.doctor.GmcRef, s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeSubmissionRejected))

		stored, err := s.recs.FindByID(context.Background(), s.rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReadyToReview, stored.Status)
		s.Empty(stored.GmcRevalidationID)
	})

	s.Run("structurally absent result reports not submitted", func() {
		s.authority.submitResult = nil
		s.authority.submitErr = nil

		resp, err := s.service.Submit(context.Background(), s.rec.ID, s.doctor.GmcRef, s.officer)
		s.Require().NoError(err)
		s.False(resp.Submitted)

		stored, err := s.recs.FindByID(context.Background(), s.rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReadyToReview, stored.Status)
	})

	s.Run("accepted submission freezes the external id", func() {
		now := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)
		s.authority.submitResult = &ports.SubmitResult{ReturnCode: "0", GmcRevalidationID: "GMC-12345"}

		resp, err := s.service.Submit(ctx, s.rec.ID, s.doctor.GmcRef, s.officer)
		s.Require().NoError(err)
		s.True(resp.Submitted)
		s.Equal("GMC-12345", resp.GmcRevalidationID)

		stored, err := s.recs.FindByID(ctx, s.rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmittedToGmc, stored.Status)
		s.Equal(models.OutcomeUnderReview, stored.Outcome)
		s.Equal("GMC-12345", stored.GmcRevalidationID)
		s.Equal(now, stored.ActualSubmissionDate)

		doctor, err := s.doctors.Get(ctx, s.doctor.GmcRef)
		s.Require().NoError(err)
		s.Equal(models.DoctorStatusSubmittedToGmc, doctor.Status)

		// Still live: a new recommendation remains blocked while under review.
		_, err = s.service.Save(ctx, SaveCommand{GmcRef: s.doctor.GmcRef, Type: models.TypeRevalidate})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
