package models

import (
	"time"

	id "revalid/pkg/domain"
)

// RecommendationType is the proposed regulatory action.
type RecommendationType string

const (
	TypeRevalidate    RecommendationType = "REVALIDATE"
	TypeNonEngagement RecommendationType = "NON_ENGAGEMENT"
	TypeDefer         RecommendationType = "DEFER"
)

// IsValid reports whether the type is one of the known actions.
func (t RecommendationType) IsValid() bool {
	switch t {
	case TypeRevalidate, TypeNonEngagement, TypeDefer:
		return true
	}
	return false
}

// RecommendationStatus tracks local workflow state.
type RecommendationStatus string

const (
	StatusReadyToReview  RecommendationStatus = "READY_TO_REVIEW"
	StatusSubmittedToGmc RecommendationStatus = "SUBMITTED_TO_GMC"
)

// Outcome is the regulator's asynchronous verdict on a submitted
// recommendation. Empty means no verdict exists yet locally.
type Outcome string

const (
	OutcomeUnderReview Outcome = "UNDER_REVIEW"
	OutcomeApproved    Outcome = "APPROVED"
	OutcomeRejected    Outcome = "REJECTED"
)

// Terminal reports whether the outcome resolves the recommendation.
func (o Outcome) Terminal() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// Recommendation is a proposed regulatory action for one doctor.
//
// Invariants:
//   - At most one live recommendation exists per doctor at any time
//   - GmcSubmissionDate is frozen at creation (the doctor's due date then)
//   - GmcRevalidationID is assigned only on successful submission and never
//     changes afterwards
//   - Deferral fields are present only when Type is DEFER
type Recommendation struct {
	ID                   id.RecommendationID  `json:"id"`
	GmcRef               id.GmcRef            `json:"gmc_ref"`
	Type                 RecommendationType   `json:"recommendation_type"`
	Status               RecommendationStatus `json:"recommendation_status"`
	Outcome              Outcome              `json:"outcome,omitempty"`
	DeferralDate         time.Time            `json:"deferral_date,omitzero"`
	DeferralReason       string               `json:"deferral_reason,omitempty"`
	DeferralSubReason    string               `json:"deferral_sub_reason,omitempty"`
	GmcSubmissionDate    time.Time            `json:"gmc_submission_date"`
	ActualSubmissionDate time.Time            `json:"actual_submission_date"`
	GmcRevalidationID    string               `json:"gmc_revalidation_id,omitempty"`
	Admin                string               `json:"admin"`
	Comments             []string             `json:"comments,omitempty"`
}

// IsLive reports whether this recommendation still blocks creation of a new
// one for the same doctor. A recommendation stays live until the regulator
// resolves it: not yet submitted, or submitted and still under review.
func (r *Recommendation) IsLive() bool {
	return r.Status != StatusSubmittedToGmc || r.Outcome == OutcomeUnderReview
}

// MarkSubmitted applies a successful submission result.
func (r *Recommendation) MarkSubmitted(gmcRevalidationID string, now time.Time) {
	r.Status = StatusSubmittedToGmc
	r.Outcome = OutcomeUnderReview
	r.GmcRevalidationID = gmcRevalidationID
	r.ActualSubmissionDate = now
}

// Snapshot is an immutable archived copy of a resolved recommendation.
// Snapshots are append-only: once written they are never mutated, and the
// archive exposes no update or delete operation.
type Snapshot struct {
	ID                   id.RecommendationID  `json:"id"`
	GmcRef               id.GmcRef            `json:"gmc_ref"`
	Type                 RecommendationType   `json:"recommendation_type"`
	Status               RecommendationStatus `json:"recommendation_status"`
	Outcome              Outcome              `json:"outcome"`
	DeferralDate         time.Time            `json:"deferral_date,omitzero"`
	DeferralReason       string               `json:"deferral_reason,omitempty"`
	DeferralSubReason    string               `json:"deferral_sub_reason,omitempty"`
	GmcSubmissionDate    time.Time            `json:"gmc_submission_date"`
	ActualSubmissionDate time.Time            `json:"actual_submission_date"`
	GmcRevalidationID    string               `json:"gmc_revalidation_id,omitempty"`
	Admin                string               `json:"admin"`
	Comments             []string             `json:"comments,omitempty"`
	ArchivedAt           time.Time            `json:"archived_at"`
}

// SnapshotOf copies a resolved recommendation into its archive form.
func SnapshotOf(r *Recommendation, archivedAt time.Time) *Snapshot {
	comments := make([]string, len(r.Comments))
	copy(comments, r.Comments)
	return &Snapshot{
		ID:                   r.ID,
		GmcRef:               r.GmcRef,
		Type:                 r.Type,
		Status:               r.Status,
		Outcome:              r.Outcome,
		DeferralDate:         r.DeferralDate,
		DeferralReason:       r.DeferralReason,
		DeferralSubReason:    r.DeferralSubReason,
		GmcSubmissionDate:    r.GmcSubmissionDate,
		ActualSubmissionDate: r.ActualSubmissionDate,
		GmcRevalidationID:    r.GmcRevalidationID,
		Admin:                r.Admin,
		Comments:             comments,
		ArchivedAt:           archivedAt,
	}
}
