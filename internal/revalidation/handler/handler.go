// Package handler wires the revalidation HTTP API to the recommendation and
// connection services.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	"revalid/internal/revalidation/service/recommendation"
	id "revalid/pkg/domain"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/platform/httputil"
	"revalid/pkg/requestcontext"
)

// RecommendationService defines the recommendation operations the API exposes.
type RecommendationService interface {
	Save(ctx context.Context, cmd recommendation.SaveCommand) (*models.Recommendation, error)
	Submit(ctx context.Context, recID id.RecommendationID, ref id.GmcRef, officer ports.SubmittingOfficer) (*recommendation.SubmitResponse, error)
	TraineeInfo(ctx context.Context, ref id.GmcRef) ([]models.RecommendationView, error)
}

// ConnectionService defines the connection operations the API exposes.
type ConnectionService interface {
	DoctorsByBody(ctx context.Context, designatedBodyCode string) ([]*models.Doctor, error)
}

// Handler wires revalidation endpoints to the services.
type Handler struct {
	recommendations RecommendationService
	connections     ConnectionService
	logger          *slog.Logger
}

// New constructs a revalidation handler with its dependencies.
func New(recommendations RecommendationService, connections ConnectionService, logger *slog.Logger) *Handler {
	return &Handler{
		recommendations: recommendations,
		connections:     connections,
		logger:          logger,
	}
}

// Register mounts revalidation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/recommendations", h.HandleSave)
	r.Put("/api/recommendations/{recommendationID}", h.HandleUpdate)
	r.Post("/api/recommendations/{recommendationID}/submit", h.HandleSubmit)
	r.Get("/api/trainee/{gmcRef}", h.HandleTraineeInfo)
	r.Get("/api/doctors", h.HandleDoctorsByBody)
}

// HandleSave handles POST /api/recommendations requests.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, id.RecommendationID{})
}

// HandleUpdate handles PUT /api/recommendations/{recommendationID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	recID, err := id.ParseRecommendationID(chi.URLParam(r, "recommendationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.save(w, r, recID)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, recID id.RecommendationID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SaveRecommendationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cmd := req.Command()
	cmd.ID = recID
	cmd.Admin = requestcontext.Admin(ctx)

	rec, err := h.recommendations.Save(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "recommendation save failed",
			"request_id", requestID,
			"gmc_ref", req.GmcRef,
			"recommendation_type", req.RecommendationType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "recommendation saved",
		"request_id", requestID,
		"gmc_ref", rec.GmcRef,
		"recommendation_id", rec.ID,
		"recommendation_type", rec.Type,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusOK
	if recID.IsNil() {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, models.ViewOfRecommendation(rec))
}

// HandleSubmit handles POST /api/recommendations/{recommendationID}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recID, err := id.ParseRecommendationID(chi.URLParam(r, "recommendationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRecommendationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.recommendations.Submit(ctx, recID, req.ParsedGmcRef(), req.Officer())
	if err != nil {
		h.logger.ErrorContext(ctx, "recommendation submission failed",
			"request_id", requestID,
			"gmc_ref", req.GmcRef,
			"recommendation_id", recID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "recommendation submission handled",
		"request_id", requestID,
		"gmc_ref", req.GmcRef,
		"recommendation_id", recID,
		"submitted", result.Submitted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{
		Submitted:         result.Submitted,
		GmcRevalidationID: result.GmcRevalidationID,
	})
}

// HandleTraineeInfo handles GET /api/trainee/{gmcRef} requests. Outcomes of
// pending submissions are reconciled before the history is assembled, so the
// view reflects the regulator's latest word.
func (h *Handler) HandleTraineeInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ref, err := id.ParseGmcRef(chi.URLParam(r, "gmcRef"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, err := h.recommendations.TraineeInfo(ctx, ref)
	if err != nil {
		h.logger.ErrorContext(ctx, "trainee info lookup failed",
			"request_id", requestID,
			"gmc_ref", ref,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TraineeInfoResponse{
		GmcRef:          ref,
		Recommendations: views,
	})
}

// HandleDoctorsByBody handles GET /api/doctors?dbc= requests.
func (h *Handler) HandleDoctorsByBody(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body := r.URL.Query().Get("dbc")
	if body == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "dbc query parameter is required"))
		return
	}

	doctors, err := h.connections.DoctorsByBody(ctx, body)
	if err != nil {
		h.logger.ErrorContext(ctx, "doctor list failed",
			"request_id", requestID,
			"designated_body_code", body,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DoctorListResponse{
		DesignatedBodyCode: body,
		Doctors:            doctorItems(doctors),
	})
}
