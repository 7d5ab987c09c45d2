package models

import (
	"time"

	id "revalid/pkg/domain"
)

// RecommendationView is the uniform record returned by trainee history reads.
// Live recommendations and archived snapshots both convert into this shape so
// callers see one list: live entries first, then archive, each internally
// ordered by submission recency.
type RecommendationView struct {
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
	Archived             bool                 `json:"archived"`
}

// ViewOfRecommendation converts a live recommendation to the uniform view.
func ViewOfRecommendation(r *Recommendation) RecommendationView {
	return RecommendationView{
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
		Comments:             r.Comments,
	}
}

// ViewOfSnapshot converts an archived snapshot to the uniform view.
func ViewOfSnapshot(s *Snapshot) RecommendationView {
	return RecommendationView{
		ID:                   s.ID,
		GmcRef:               s.GmcRef,
		Type:                 s.Type,
		Status:               s.Status,
		Outcome:              s.Outcome,
		DeferralDate:         s.DeferralDate,
		DeferralReason:       s.DeferralReason,
		DeferralSubReason:    s.DeferralSubReason,
		GmcSubmissionDate:    s.GmcSubmissionDate,
		ActualSubmissionDate: s.ActualSubmissionDate,
		GmcRevalidationID:    s.GmcRevalidationID,
		Admin:                s.Admin,
		Comments:             s.Comments,
		Archived:             true,
	}
}
