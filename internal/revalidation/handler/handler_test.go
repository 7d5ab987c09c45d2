package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"revalid/internal/reference"
	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	"revalid/internal/revalidation/service/connection"
	"revalid/internal/revalidation/service/recommendation"
	doctorstore "revalid/internal/revalidation/store/doctor"
	recstore "revalid/internal/revalidation/store/recommendation"
	snapstore "revalid/internal/revalidation/store/snapshot"
	id "revalid/pkg/domain"
)

// scriptedAuthority returns canned regulator responses for handler tests.
type scriptedAuthority struct {
	submitResult *ports.SubmitResult
	outcome      models.Outcome
}

func (a *scriptedAuthority) Submit(context.Context, *models.Doctor, *models.Recommendation, ports.SubmittingOfficer) (*ports.SubmitResult, error) {
	return a.submitResult, nil
}

func (a *scriptedAuthority) PollOutcome(context.Context, ports.PollRequest) (models.Outcome, error) {
	if a.outcome == "" {
		return models.OutcomeUnderReview, nil
	}
	return a.outcome, nil
}

// HandlerSuite wires the HTTP layer over real services and in-memory stores;
// only the regulator boundary is scripted.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	doctors   *doctorstore.InMemoryDoctorStore
	authority *scriptedAuthority
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.doctors = doctorstore.New()
	recs := recstore.New()
	archive := snapstore.New()
	s.authority = &scriptedAuthority{}

	recService, err := recommendation.New(s.doctors, recs, archive, s.authority, reference.NewDeferralReasons())
	require.NoError(s.T(), err)
	connService, err := connection.New(s.doctors, recs, archive)
	require.NoError(s.T(), err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(recService, connService, logger)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) seedDoctor(ref string) {
	err := s.doctors.Upsert(context.Background(), &models.Doctor{
		GmcRef:             id.GmcRef(ref),
		FirstName:          "Sam",
		LastName:           "Osei",
		SubmissionDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		UnderNotice:        models.UnderNoticeYes,
		DesignatedBodyCode: "1-AAAA",
		ExistsInGmc:        true,
		Status:             models.DoctorStatusNotStarted,
	})
	require.NoError(s.T(), err)
}

func (s *HandlerSuite) do(method, target string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(s.T(), json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createRecommendation(ref string) models.RecommendationView {
	rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
		"gmc_ref":             ref,
		"recommendation_type": "REVALIDATE",
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())

	var view models.RecommendationView
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

// =============================================================================
// Save Tests
// =============================================================================

func (s *HandlerSuite) TestSave() {
	s.Run("invalid JSON returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/recommendations",
			bytes.NewReader([]byte("not valid json")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown field returns 400", func() {
		s.seedDoctor("7000001")
		rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
			"gmc_ref":             "7000001",
			"recommendation_type": "REVALIDATE",
			"surprise":            true,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing type returns 422 with field detail", func() {
		s.seedDoctor("7000002")
		rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
			"gmc_ref": "7000002",
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "recommendationType")
	})

	s.Run("unknown doctor returns 404", func() {
		rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
			"gmc_ref":             "7999999",
			"recommendation_type": "REVALIDATE",
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("valid create returns 201 with the stored view", func() {
		s.seedDoctor("7000003")
		view := s.createRecommendation("7000003")
		s.Equal(id.GmcRef("7000003"), view.GmcRef)
		s.Equal(models.StatusReadyToReview, view.Status)
	})

	s.Run("second live recommendation returns 409", func() {
		s.seedDoctor("7000004")
		s.createRecommendation("7000004")
		rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
			"gmc_ref":             "7000004",
			"recommendation_type": "REVALIDATE",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("deferral outside the window returns 422", func() {
		s.seedDoctor("7000005")
		rec := s.do(http.MethodPost, "/api/recommendations", map[string]any{
			"gmc_ref":             "7000005",
			"recommendation_type": "DEFER",
			"deferral_date":       "2026-07-01",
			"deferral_reason":     "2",
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "deferral_date")
	})
}

func (s *HandlerSuite) TestUpdate() {
	s.Run("malformed id returns 422", func() {
		rec := s.do(http.MethodPut, "/api/recommendations/not-a-uuid", map[string]any{
			"gmc_ref":             "7000010",
			"recommendation_type": "REVALIDATE",
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("updating the live recommendation returns 200", func() {
		s.seedDoctor("7000011")
		view := s.createRecommendation("7000011")

		rec := s.do(http.MethodPut, "/api/recommendations/"+view.ID.String(), map[string]any{
			"gmc_ref":             "7000011",
			"recommendation_type": "NON_ENGAGEMENT",
		})
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())

		var updated models.RecommendationView
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
		s.Equal(view.ID, updated.ID)
		s.Equal(models.TypeNonEngagement, updated.Type)
	})
}

// =============================================================================
// Submit Tests
// =============================================================================

func (s *HandlerSuite) TestSubmit() {
	s.seedDoctor("7000020")
	view := s.createRecommendation("7000020")
	submitURL := fmt.Sprintf("/api/recommendations/%s/submit", view.ID)
	payload := map[string]any{
		"gmc_ref": "7000020",
		"submitting_officer": map[string]string{
			"first_name": "Ada",
			"last_name":  "Boateng",
			"email":      "ro@example.org",
		},
	}

	s.Run("missing officer email returns 422", func() {
		rec := s.do(http.MethodPost, submitURL, map[string]any{"gmc_ref": "7000020"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("regulator refusal returns 409", func() {
		s.authority.submitResult = &ports.SubmitResult{ReturnCode: "90", Message: "Invalid credentials"}
		rec := s.do(http.MethodPost, submitURL, payload)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("absent regulator result returns submitted false", func() {
		s.authority.submitResult = nil
		rec := s.do(http.MethodPost, submitURL, payload)
		s.Equal(http.StatusOK, rec.Code)

		var resp SubmitResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.False(resp.Submitted)
	})

	s.Run("accepted submission returns the external id", func() {
		s.authority.submitResult = &ports.SubmitResult{ReturnCode: "0", GmcRevalidationID: "GMC-42"}
		rec := s.do(http.MethodPost, submitURL, payload)
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())

		var resp SubmitResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.True(resp.Submitted)
		s.Equal("GMC-42", resp.GmcRevalidationID)
	})
}

// =============================================================================
// Read Tests
// =============================================================================

func (s *HandlerSuite) TestTraineeInfo() {
	s.Run("unknown doctor returns 404", func() {
		rec := s.do(http.MethodGet, "/api/trainee/7999999", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("returns the doctor's history", func() {
		s.seedDoctor("7000030")
		view := s.createRecommendation("7000030")

		rec := s.do(http.MethodGet, "/api/trainee/7000030", nil)
		s.Equal(http.StatusOK, rec.Code)

		var resp TraineeInfoResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(id.GmcRef("7000030"), resp.GmcRef)
		s.Require().Len(resp.Recommendations, 1)
		s.Equal(view.ID, resp.Recommendations[0].ID)
	})
}

func (s *HandlerSuite) TestDoctorsByBody() {
	s.Run("missing dbc parameter returns 422", func() {
		rec := s.do(http.MethodGet, "/api/doctors", nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("lists the body's doctors", func() {
		s.seedDoctor("7000040")
		s.seedDoctor("7000041")

		rec := s.do(http.MethodGet, "/api/doctors?dbc=1-AAAA", nil)
		s.Equal(http.StatusOK, rec.Code)

		var resp DoctorListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("1-AAAA", resp.DesignatedBodyCode)
		s.Len(resp.Doctors, 2)
	})
}
