// Package recommendation implements the recommendation lifecycle engine:
// creation and update validation, the one-live-recommendation invariant,
// submission to the regulator, and archival of resolved outcomes.
package recommendation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"revalid/internal/revalidation/metrics"
	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/requestcontext"
	"revalid/pkg/sentinel"
)

// ReturnCodeSuccess is the regulator's code for an accepted submission.
const ReturnCodeSuccess = "0"

const (
	// Deferral window bounds relative to the doctor's frozen due date.
	// Both bounds are exclusive: exactly +60d or +365d is rejected.
	deferralMinDays = 60
	deferralMaxDays = 365
)

var tracer = otel.Tracer("revalid/recommendation")

// Service orchestrates the recommendation lifecycle for doctors.
type Service struct {
	doctors   ports.DoctorStore
	recs      ports.RecommendationStore
	archive   ports.SnapshotArchive
	authority ports.AuthorityClient
	reasons   ports.DeferralReasonDirectory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	notifier  ports.SyncNotifier
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSyncNotifier(n ports.SyncNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New constructs a Service.
func New(
	doctors ports.DoctorStore,
	recs ports.RecommendationStore,
	archive ports.SnapshotArchive,
	authority ports.AuthorityClient,
	reasons ports.DeferralReasonDirectory,
	opts ...Option,
) (*Service, error) {
	if doctors == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "doctor store is required")
	}
	if recs == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "recommendation store is required")
	}
	if archive == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "snapshot archive is required")
	}
	if authority == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "authority client is required")
	}
	if reasons == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "deferral reason directory is required")
	}

	s := &Service{
		doctors:   doctors,
		recs:      recs,
		archive:   archive,
		authority: authority,
		reasons:   reasons,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SaveCommand carries the inputs for creating or updating a recommendation.
// A zero ID means create; a set ID means update that recommendation in place.
type SaveCommand struct {
	ID                id.RecommendationID
	GmcRef            id.GmcRef
	Type              models.RecommendationType
	Admin             string
	Comments          []string
	DeferralDate      time.Time
	DeferralReason    string
	DeferralSubReason string
}

// Save creates or updates a recommendation in READY_TO_REVIEW, enforcing the
// one-live-recommendation invariant and, for deferrals, the deferral window
// and reason reference data. On success the doctor's derived status is
// recomputed and persisted.
func (s *Service) Save(ctx context.Context, cmd SaveCommand) (*models.Recommendation, error) {
	doctor, err := s.doctors.Get(ctx, cmd.GmcRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
	}

	if !cmd.Type.IsValid() {
		return nil, dErrors.WithField(dErrors.CodeValidation, "recommendation_type", "unknown recommendation type")
	}

	var existing *models.Recommendation
	if !cmd.ID.IsNil() {
		existing, err = s.recs.FindByID(ctx, cmd.ID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "recommendation not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recommendation")
		}
		if existing.GmcRef != cmd.GmcRef {
			return nil, dErrors.New(dErrors.CodeBadRequest, "recommendation does not belong to this doctor")
		}
		// Once submitted the document is frozen: an under-review
		// recommendation must not silently revert to a draft, and a
		// resolved one must not be resurrected alongside its snapshot.
		if existing.Status == models.StatusSubmittedToGmc {
			return nil, dErrors.New(dErrors.CodeConflict, "a submitted recommendation cannot be updated")
		}
	}

	// One live recommendation per doctor. An update targeting the existing
	// live recommendation's own id is always permitted.
	live, err := s.recs.FindLiveByDoctor(ctx, cmd.GmcRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load live recommendations")
	}
	for _, r := range live {
		if r.ID != cmd.ID {
			return nil, dErrors.New(dErrors.CodeConflict, "a recommendation already exists for this doctor")
		}
	}

	// The deferral window is anchored on the due date frozen at creation,
	// not the doctor's current one.
	dueDate := doctor.SubmissionDate
	if existing != nil {
		dueDate = existing.GmcSubmissionDate
	}

	deferralDate, deferralReason, deferralSubReason := time.Time{}, "", ""
	if cmd.Type == models.TypeDefer {
		deferralDate = cmd.DeferralDate
		deferralReason, deferralSubReason, err = s.validateDeferral(dueDate, cmd)
		if err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	rec := existing
	if rec == nil {
		rec = &models.Recommendation{
			ID:                cmd.ID,
			GmcRef:            cmd.GmcRef,
			GmcSubmissionDate: dueDate,
		}
		if rec.ID.IsNil() {
			rec.ID = id.NewRecommendationID()
		}
	}
	rec.Type = cmd.Type
	rec.Status = models.StatusReadyToReview
	rec.Outcome = ""
	rec.DeferralDate = deferralDate
	rec.DeferralReason = deferralReason
	rec.DeferralSubReason = deferralSubReason
	rec.Admin = cmd.Admin
	rec.Comments = append([]string(nil), cmd.Comments...)
	rec.ActualSubmissionDate = now

	if err := s.recs.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save recommendation")
	}
	if err := s.refreshDoctorStatus(ctx, doctor); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "recommendation saved",
		"gmc_ref", cmd.GmcRef,
		"recommendation_id", rec.ID,
		"recommendation_type", rec.Type,
	)
	s.incrementSaved()
	return rec, nil
}

// validateDeferral enforces the deferral window and resolves the reason
// against reference data. The sub-reason is required only when the resolved
// reason demands one; otherwise it is ignored.
func (s *Service) validateDeferral(dueDate time.Time, cmd SaveCommand) (reason, subReason string, err error) {
	if cmd.DeferralDate.IsZero() {
		return "", "", dErrors.WithField(dErrors.CodeValidation, "deferral_date", "deferral date is required")
	}
	earliest := dueDate.AddDate(0, 0, deferralMinDays)
	latest := dueDate.AddDate(0, 0, deferralMaxDays)
	if !cmd.DeferralDate.After(earliest) || !cmd.DeferralDate.Before(latest) {
		return "", "", dErrors.WithField(dErrors.CodeValidation, "deferral_date",
			"deferral date must be more than 60 and less than 365 days after the due date")
	}

	resolved := s.reasons.ByCode(cmd.DeferralReason)
	if resolved == nil {
		return "", "", dErrors.WithField(dErrors.CodeValidation, "deferral_reason", "unknown deferral reason")
	}
	if !resolved.RequiresSubReason {
		return resolved.Code, "", nil
	}
	for _, sub := range resolved.SubReasons {
		if sub == cmd.DeferralSubReason {
			return resolved.Code, sub, nil
		}
	}
	return "", "", dErrors.WithField(dErrors.CodeValidation, "deferral_sub_reason",
		"deferral reason requires a valid sub-reason")
}

// refreshDoctorStatus recomputes the derived status from the latest
// recommendation across live documents and the archive, and persists it.
func (s *Service) refreshDoctorStatus(ctx context.Context, doctor *models.Doctor) error {
	live, err := s.recs.FindLiveByDoctor(ctx, doctor.GmcRef)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load live recommendations")
	}
	archived, err := s.archive.FindByDoctor(ctx, doctor.GmcRef)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load archived recommendations")
	}

	doctor.Status = models.DeriveStatus(doctor.UnderNotice, models.MostRecent(live, archived))
	doctor.LastUpdatedDate = requestcontext.Now(ctx)
	if err := s.doctors.Upsert(ctx, doctor); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist doctor status")
	}
	if s.notifier != nil {
		s.notifier.DoctorChanged(ctx, doctor)
	}
	return nil
}

func (s *Service) incrementSaved() {
	if s.metrics != nil {
		s.metrics.IncrementRecommendationsSaved()
	}
}

func spanAttrs(ref id.GmcRef, recID id.RecommendationID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("gmc_ref", ref.String()),
		attribute.String("recommendation_id", recID.String()),
	}
}
