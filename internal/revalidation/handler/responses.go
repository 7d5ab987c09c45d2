package handler

import (
	"time"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
)

// SubmitResponse is the HTTP response body for a submission attempt.
type SubmitResponse struct {
	Submitted         bool   `json:"submitted"`
	GmcRevalidationID string `json:"gmc_revalidation_id,omitempty"`
}

// TraineeInfoResponse is the HTTP response body for a doctor's
// recommendation history, newest first, live before archived.
type TraineeInfoResponse struct {
	GmcRef          id.GmcRef                   `json:"gmc_ref"`
	Recommendations []models.RecommendationView `json:"recommendations"`
}

// DoctorListResponse is the HTTP response body for a designated body's
// connected doctors.
type DoctorListResponse struct {
	DesignatedBodyCode string       `json:"designated_body_code"`
	Doctors            []DoctorItem `json:"doctors"`
}

// DoctorItem is one connected doctor in a worklist.
type DoctorItem struct {
	GmcRef         id.GmcRef           `json:"gmc_ref"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	SubmissionDate time.Time           `json:"submission_date"`
	UnderNotice    models.UnderNotice  `json:"under_notice"`
	Sanction       string              `json:"sanction,omitempty"`
	Status         models.DoctorStatus `json:"doctor_status"`
	Admin          string              `json:"admin,omitempty"`
}

func doctorItems(doctors []*models.Doctor) []DoctorItem {
	items := make([]DoctorItem, 0, len(doctors))
	for _, d := range doctors {
		items = append(items, DoctorItem{
			GmcRef:         d.GmcRef,
			FirstName:      d.FirstName,
			LastName:       d.LastName,
			SubmissionDate: d.SubmissionDate,
			UnderNotice:    d.UnderNotice,
			Sanction:       d.Sanction,
			Status:         d.Status,
			Admin:          d.Admin,
		})
	}
	return items
}
