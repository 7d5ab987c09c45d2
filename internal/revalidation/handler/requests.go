package handler

import (
	"strings"
	"time"

	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	"revalid/internal/revalidation/service/recommendation"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	pstrings "revalid/pkg/platform/strings"
)

// deferralDateLayout is the wire format for deferral dates. Deferrals are
// whole-day decisions; no clock component crosses the API.
const deferralDateLayout = "2006-01-02"

// SaveRecommendationRequest is the HTTP request body for creating or updating
// a recommendation.
type SaveRecommendationRequest struct {
	GmcRef             string   `json:"gmc_ref"`
	RecommendationType string   `json:"recommendation_type"`
	Comments           []string `json:"comments,omitempty"`
	DeferralDate       string   `json:"deferral_date,omitempty"`
	DeferralReason     string   `json:"deferral_reason,omitempty"`
	DeferralSubReason  string   `json:"deferral_sub_reason,omitempty"`

	// Parsed values (populated by Validate)
	parsedGmcRef       id.GmcRef
	parsedType         models.RecommendationType
	parsedDeferralDate time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SaveRecommendationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.GmcRef = strings.TrimSpace(r.GmcRef)
	ref, err := id.ParseGmcRef(r.GmcRef)
	if err != nil {
		return err
	}
	r.parsedGmcRef = ref

	r.RecommendationType = strings.TrimSpace(r.RecommendationType)
	if r.RecommendationType == "" {
		return dErrors.WithField(dErrors.CodeValidation, "recommendationType", "recommendation type is required")
	}
	r.parsedType = models.RecommendationType(r.RecommendationType)

	if r.DeferralDate != "" {
		parsed, err := time.Parse(deferralDateLayout, r.DeferralDate)
		if err != nil {
			return dErrors.WithField(dErrors.CodeValidation, "deferralDate", "deferral date must be a YYYY-MM-DD date")
		}
		r.parsedDeferralDate = parsed
	}

	for _, comment := range r.Comments {
		if len(comment) > 1000 {
			return dErrors.WithField(dErrors.CodeValidation, "comments", "comments must be at most 1000 characters")
		}
	}
	r.Comments = pstrings.DedupeAndTrim(r.Comments)

	return nil
}

// Command converts the validated request to a service command. The caller
// fills in the recommendation ID and acting admin.
func (r *SaveRecommendationRequest) Command() recommendation.SaveCommand {
	return recommendation.SaveCommand{
		GmcRef:            r.parsedGmcRef,
		Type:              r.parsedType,
		Comments:          r.Comments,
		DeferralDate:      r.parsedDeferralDate,
		DeferralReason:    strings.TrimSpace(r.DeferralReason),
		DeferralSubReason: strings.TrimSpace(r.DeferralSubReason),
	}
}

// SubmitRecommendationRequest is the HTTP request body for submitting a
// recommendation to the regulator.
type SubmitRecommendationRequest struct {
	GmcRef            string `json:"gmc_ref"`
	SubmittingOfficer struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"submitting_officer"`

	parsedGmcRef id.GmcRef
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRecommendationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.GmcRef = strings.TrimSpace(r.GmcRef)
	ref, err := id.ParseGmcRef(r.GmcRef)
	if err != nil {
		return err
	}
	r.parsedGmcRef = ref

	r.SubmittingOfficer.FirstName = strings.TrimSpace(r.SubmittingOfficer.FirstName)
	r.SubmittingOfficer.LastName = strings.TrimSpace(r.SubmittingOfficer.LastName)
	r.SubmittingOfficer.Email = strings.TrimSpace(r.SubmittingOfficer.Email)
	if r.SubmittingOfficer.Email == "" {
		return dErrors.WithField(dErrors.CodeValidation, "submittingOfficer.email", "submitting officer email is required")
	}

	return nil
}

// ParsedGmcRef returns the validated GMC reference.
func (r *SubmitRecommendationRequest) ParsedGmcRef() id.GmcRef {
	return r.parsedGmcRef
}

// Officer returns the submitting officer details.
func (r *SubmitRecommendationRequest) Officer() ports.SubmittingOfficer {
	return ports.SubmittingOfficer{
		FirstName: r.SubmittingOfficer.FirstName,
		LastName:  r.SubmittingOfficer.LastName,
		Email:     r.SubmittingOfficer.Email,
	}
}
