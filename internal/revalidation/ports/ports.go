// Package ports defines shared interfaces for the revalidation module.
// Interfaces live here when consumed by multiple services to avoid duplication;
// implementations live under store/, internal/gmc and internal/sync.
package ports

import (
	"context"
	"time"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
)

// DoctorStore is durable keyed storage for one record per doctor identity.
// It is the single shared-mutable resource across both engines and across
// concurrent collection jobs; all writes are idempotent re-applications keyed
// by GmcRef.
type DoctorStore interface {
	// Get returns the doctor, or sentinel.ErrNotFound if the reference is
	// unknown.
	Get(ctx context.Context, ref id.GmcRef) (*models.Doctor, error)

	// Upsert creates or replaces the doctor record keyed by GmcRef.
	Upsert(ctx context.Context, doctor *models.Doctor) error

	// FindByBody returns all doctors currently connected to a designated body.
	FindByBody(ctx context.Context, designatedBodyCode string) ([]*models.Doctor, error)

	// FindStale returns doctors connected to the body whose
	// GmcLastUpdatedDateTime is strictly before the given instant.
	FindStale(ctx context.Context, designatedBodyCode string, before time.Time) ([]*models.Doctor, error)

	// Disconnect clears the doctor's connection iff, on the latest committed
	// record, the doctor still belongs to designatedBodyCode AND requestTime
	// is strictly after its GmcLastUpdatedDateTime. It is a single atomic
	// read-modify-write; data read earlier by FindStale must not be reused.
	// A failed guard (the doctor was concurrently reassigned or is unknown)
	// returns sentinel.ErrStaleWrite, an expected outcome for callers to
	// translate, not an infrastructure failure.
	Disconnect(ctx context.Context, ref id.GmcRef, designatedBodyCode string, requestTime time.Time) error
}

// RecommendationStore persists recommendation documents.
type RecommendationStore interface {
	// FindByID returns the recommendation, or sentinel.ErrNotFound if the id
	// is unknown.
	FindByID(ctx context.Context, recID id.RecommendationID) (*models.Recommendation, error)

	// Save creates or replaces a recommendation keyed by its id.
	Save(ctx context.Context, rec *models.Recommendation) error

	// FindLiveByDoctor returns the doctor's unresolved recommendations,
	// newest ActualSubmissionDate first.
	FindLiveByDoctor(ctx context.Context, ref id.GmcRef) ([]*models.Recommendation, error)

	// FindSubmitted returns every recommendation awaiting a regulator
	// verdict, across all doctors. Used by the periodic outcome poller.
	FindSubmitted(ctx context.Context) ([]*models.Recommendation, error)
}

// SnapshotArchive is append-only storage of resolved recommendations.
// No update or delete operation is exposed.
type SnapshotArchive interface {
	Append(ctx context.Context, snap *models.Snapshot) error

	// FindByDoctor returns the doctor's archived snapshots, newest
	// ActualSubmissionDate first.
	FindByDoctor(ctx context.Context, ref id.GmcRef) ([]*models.Snapshot, error)
}

// SubmittingOfficer identifies who is submitting a recommendation to the
// regulator.
type SubmittingOfficer struct {
	FirstName string
	LastName  string
	Email     string
}

// SubmitResult is the regulator's synchronous response to a submission.
type SubmitResult struct {
	ReturnCode        string
	Message           string
	GmcRevalidationID string
}

// PollRequest identifies a previously submitted recommendation.
type PollRequest struct {
	GmcRef             id.GmcRef
	GmcRevalidationID  string
	RecommendationID   id.RecommendationID
	DesignatedBodyCode string
}

// AuthorityClient is the synchronous boundary to the external regulator.
// Calls may be slow or fail transiently; neither engine retries internally,
// and callers bound each call with a context deadline.
type AuthorityClient interface {
	// Submit proposes the recommendation to the regulator. A nil result with
	// a nil error means the response carried no decodable result, which the
	// engine reports as "not submitted" rather than an error.
	Submit(ctx context.Context, doctor *models.Doctor, rec *models.Recommendation, officer SubmittingOfficer) (*SubmitResult, error)

	// PollOutcome returns the regulator's current verdict. Any non-success
	// return code from the remote system maps to UNDER_REVIEW ("not yet
	// resolved"); only transport failures surface as errors, and callers
	// treat those as soft, retryable conditions.
	PollOutcome(ctx context.Context, req PollRequest) (models.Outcome, error)
}

// DeferralReason is reference data describing one permissible deferral reason.
type DeferralReason struct {
	Code              string
	Label             string
	RequiresSubReason bool
	SubReasons        []string
}

// DeferralReasonDirectory resolves deferral reason codes against reference
// data maintained outside this service.
type DeferralReasonDirectory interface {
	// ByCode returns the reason, or nil if the code is unknown.
	ByCode(code string) *DeferralReason
}

// SyncNotifier receives post-mutation doctor views for fan-out to downstream
// consumers (search index, messaging). The engines only notify; all dispatch
// logic lives behind this interface.
type SyncNotifier interface {
	DoctorChanged(ctx context.Context, doctor *models.Doctor)
}
