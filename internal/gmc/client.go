// Package gmc implements the Authority client: the synchronous call boundary
// to the external regulator for submitting recommendations and polling their
// outcomes.
package gmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
)

// ReturnCodeSuccess is the regulator's code for an accepted request.
const ReturnCodeSuccess = "0"

// Config captures the regulator endpoint configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the regulator over HTTP. Calls are bounded by the caller's
// context and the configured client timeout; the client never retries, retry
// policy belongs to the caller or scheduler.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	GmcRef             string   `json:"gmc_ref"`
	DesignatedBodyCode string   `json:"designated_body_code"`
	RecommendationType string   `json:"recommendation_type"`
	DeferralDate       string   `json:"deferral_date,omitempty"`
	DeferralReason     string   `json:"deferral_reason,omitempty"`
	DeferralSubReason  string   `json:"deferral_sub_reason,omitempty"`
	Comments           []string `json:"comments,omitempty"`
	OfficerFirstName   string   `json:"officer_first_name"`
	OfficerLastName    string   `json:"officer_last_name"`
	OfficerEmail       string   `json:"officer_email"`
}

type submitResponse struct {
	ReturnCode          string `json:"return_code"`
	ReturnMessage       string `json:"return_message"`
	GmcRecommendationID string `json:"gmc_recommendation_id"`
}

// Submit proposes the recommendation to the regulator. A response body that
// does not decode into a result yields (nil, nil): the engine reports "not
// submitted" and leaves all state untouched.
func (c *Client) Submit(ctx context.Context, doctor *models.Doctor, rec *models.Recommendation, officer ports.SubmittingOfficer) (*ports.SubmitResult, error) {
	payload := submitRequest{
		GmcRef:             doctor.GmcRef.String(),
		DesignatedBodyCode: doctor.DesignatedBodyCode,
		RecommendationType: string(rec.Type),
		DeferralReason:     rec.DeferralReason,
		DeferralSubReason:  rec.DeferralSubReason,
		Comments:           rec.Comments,
		OfficerFirstName:   officer.FirstName,
		OfficerLastName:    officer.LastName,
		OfficerEmail:       officer.Email,
	}
	if !rec.DeferralDate.IsZero() {
		payload.DeferralDate = rec.DeferralDate.Format("2006-01-02")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recommendations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit recommendation: %w", err)
	}
	defer resp.Body.Close()

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || decoded.ReturnCode == "" {
		c.logger.WarnContext(ctx, "regulator response carried no decodable result",
			"gmc_ref", doctor.GmcRef, "http_status", resp.StatusCode)
		return nil, nil
	}
	return &ports.SubmitResult{
		ReturnCode:        decoded.ReturnCode,
		Message:           decoded.ReturnMessage,
		GmcRevalidationID: decoded.GmcRecommendationID,
	}, nil
}

type pollResponse struct {
	ReturnCode string `json:"return_code"`
	Status     string `json:"status"`
}

// PollOutcome returns the regulator's current verdict for a previously
// submitted recommendation. Any non-success return code maps to UNDER_REVIEW:
// "not yet resolved" is the only safe reading of a refusal here, and polling
// must never surface one as a hard failure. Transport errors do surface, and
// callers treat them as soft conditions.
func (c *Client) PollOutcome(ctx context.Context, pollReq ports.PollRequest) (models.Outcome, error) {
	endpoint := fmt.Sprintf("%s/v1/recommendations/%s", c.baseURL, url.PathEscape(pollReq.GmcRevalidationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build poll request: %w", err)
	}
	q := req.URL.Query()
	q.Set("gmc_ref", pollReq.GmcRef.String())
	q.Set("designated_body_code", pollReq.DesignatedBodyCode)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll outcome: %w", err)
	}
	defer resp.Body.Close()

	var decoded pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.OutcomeUnderReview, nil
	}
	if decoded.ReturnCode != ReturnCodeSuccess {
		return models.OutcomeUnderReview, nil
	}
	switch models.Outcome(decoded.Status) {
	case models.OutcomeApproved:
		return models.OutcomeApproved, nil
	case models.OutcomeRejected:
		return models.OutcomeRejected, nil
	default:
		return models.OutcomeUnderReview, nil
	}
}
