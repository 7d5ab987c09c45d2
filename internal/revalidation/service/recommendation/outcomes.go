package recommendation

import (
	"context"
	"errors"

	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/requestcontext"
	"revalid/pkg/sentinel"
)

// CheckOutcomes polls the regulator for every previously-submitted live
// recommendation of one doctor and archives any that resolved. An unreachable
// regulator is a soft condition: logged, counted, and state left unchanged.
// It must never be conflated with a confirmed rejection.
func (s *Service) CheckOutcomes(ctx context.Context, ref id.GmcRef) error {
	live, err := s.recs.FindLiveByDoctor(ctx, ref)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load live recommendations")
	}
	for _, rec := range live {
		if rec.Status != models.StatusSubmittedToGmc || rec.Outcome != models.OutcomeUnderReview {
			continue
		}
		if err := s.reconcileOutcome(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// CheckAllOutcomes runs the outcome poll for every submitted recommendation
// across all doctors. Invoked periodically by the background poller.
func (s *Service) CheckAllOutcomes(ctx context.Context) error {
	submitted, err := s.recs.FindSubmitted(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submitted recommendations")
	}
	for _, rec := range submitted {
		if err := s.reconcileOutcome(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reconcileOutcome(ctx context.Context, rec *models.Recommendation) error {
	// A missing doctor record is tolerated here: the recommendation still
	// resolves and archives, only the status refresh is skipped.
	doctor, err := s.doctors.Get(ctx, rec.GmcRef)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
	}

	designatedBody := ""
	if doctor != nil {
		designatedBody = doctor.DesignatedBodyCode
	}
	outcome, err := s.authority.PollOutcome(ctx, ports.PollRequest{
		GmcRef:             rec.GmcRef,
		GmcRevalidationID:  rec.GmcRevalidationID,
		RecommendationID:   rec.ID,
		DesignatedBodyCode: designatedBody,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "regulator unreachable during outcome poll",
			"gmc_ref", rec.GmcRef, "recommendation_id", rec.ID, "error", err)
		if s.metrics != nil {
			s.metrics.IncrementPollFailures()
		}
		return nil
	}
	if !outcome.Terminal() {
		return nil
	}

	rec.Outcome = outcome
	if err := s.recs.Save(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist resolved recommendation")
	}
	if err := s.archive.Append(ctx, models.SnapshotOf(rec, requestcontext.Now(ctx))); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to archive recommendation")
	}
	if doctor != nil {
		if err := s.refreshDoctorStatus(ctx, doctor); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "recommendation resolved",
		"gmc_ref", rec.GmcRef,
		"recommendation_id", rec.ID,
		"outcome", outcome,
	)
	if s.metrics != nil {
		s.metrics.IncrementRecommendationsArchived(string(outcome))
	}
	return nil
}

// TraineeInfo reconciles outstanding outcomes first, then returns the
// doctor's complete history: remaining live recommendations followed by the
// archive, each internally ordered by submission recency.
func (s *Service) TraineeInfo(ctx context.Context, ref id.GmcRef) ([]models.RecommendationView, error) {
	if _, err := s.doctors.Get(ctx, ref); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
	}

	if err := s.CheckOutcomes(ctx, ref); err != nil {
		return nil, err
	}

	live, err := s.recs.FindLiveByDoctor(ctx, ref)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load live recommendations")
	}
	archived, err := s.archive.FindByDoctor(ctx, ref)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load archived recommendations")
	}

	views := make([]models.RecommendationView, 0, len(live)+len(archived))
	for _, rec := range live {
		views = append(views, models.ViewOfRecommendation(rec))
	}
	for _, snap := range archived {
		views = append(views, models.ViewOfSnapshot(snap))
	}
	return views, nil
}
