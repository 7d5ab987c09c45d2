package recommendation

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"revalid/internal/revalidation/ports"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/requestcontext"
	"revalid/pkg/sentinel"
)

// SubmitResponse reports the result of a submission attempt. Submitted is
// false when the regulator's response carried no decodable result; nothing
// was mutated and the caller may retry.
type SubmitResponse struct {
	Submitted         bool
	GmcRevalidationID string
}

// Submit sends a recommendation to the regulator. On an accepted submission
// the recommendation moves to SUBMITTED_TO_GMC/UNDER_REVIEW, the external id
// is frozen, and the doctor's derived status is recomputed. On any refusal or
// absent response the recommendation and doctor are left untouched; retry
// policy belongs to the caller.
func (s *Service) Submit(ctx context.Context, recID id.RecommendationID, ref id.GmcRef, officer ports.SubmittingOfficer) (*SubmitResponse, error) {
	ctx, span := tracer.Start(ctx, "recommendation.submit", trace.WithAttributes(spanAttrs(ref, recID)...))
	defer span.End()

	doctor, err := s.doctors.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
	}

	rec, err := s.recs.FindByID(ctx, recID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "recommendation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recommendation")
	}
	if rec.GmcRef != ref {
		return nil, dErrors.New(dErrors.CodeBadRequest, "recommendation does not belong to this doctor")
	}

	result, err := s.authority.Submit(ctx, doctor, rec, officer)
	if err != nil {
		// Transport failure: nothing was mutated. Submission is never
		// treated as a soft condition, so this surfaces to the caller.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "regulator submission failed")
	}
	if result == nil {
		s.logger.WarnContext(ctx, "regulator returned no submission result",
			"gmc_ref", ref, "recommendation_id", recID)
		return &SubmitResponse{Submitted: false}, nil
	}
	if result.ReturnCode != ReturnCodeSuccess {
		if s.metrics != nil {
			s.metrics.IncrementSubmissionRejections()
		}
		return nil, dErrors.Newf(dErrors.CodeSubmissionRejected,
			"regulator rejected submission (code %s): %s", result.ReturnCode, result.Message)
	}

	rec.MarkSubmitted(result.GmcRevalidationID, requestcontext.Now(ctx))
	if err := s.recs.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist submitted recommendation")
	}
	if err := s.refreshDoctorStatus(ctx, doctor); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "recommendation submitted",
		"gmc_ref", ref,
		"recommendation_id", recID,
		"gmc_revalidation_id", result.GmcRevalidationID,
	)
	if s.metrics != nil {
		s.metrics.IncrementRecommendationsSubmitted()
	}
	return &SubmitResponse{Submitted: true, GmcRevalidationID: result.GmcRevalidationID}, nil
}
