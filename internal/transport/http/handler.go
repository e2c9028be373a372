package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"social-insights-service/internal/service"
)

type Handler struct {
	svc *service.AnalysisService
}

func NewHandler(svc *service.AnalysisService) *Handler {
	return &Handler{svc: svc}
}

type analyzeDTO struct {
	ArtistName        string `json:"artistName"`
	InstagramUsername string `json:"instagramUsername"`
	TikTokUsername    string `json:"tiktokUsername"`
}

type analyzeResp struct {
	AnalysisID    string `json:"analysisId"`
	AnalysisToken string `json:"analysisToken"`
	Message       string `json:"message"`
}

type statusResp struct {
	Progress      int    `json:"progress"`
	Message       string `json:"message"`
	EstimatedTime int64  `json:"estimatedTime"`
	Complete      bool   `json:"complete"`
	Success       *bool  `json:"success,omitempty"`
	Error         string `json:"error,omitempty"`
	ArtistSlug    string `json:"artistSlug,omitempty"`
}

// Analyze godoc
// @Summary Start a social content analysis
// @Description Validates the request, seeds a progress record, and runs the analysis in the background.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body analyzeDTO true "artist name plus at least one platform handle"
// @Success 202 {object} analyzeResp
// @Failure 400 {object} apiError
// @Router /analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var dto analyzeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	job, err := h.svc.Submit(r.Context(), service.SubmitRequest{
		ArtistName:        dto.ArtistName,
		InstagramUsername: dto.InstagramUsername,
		TikTokUsername:    dto.TikTokUsername,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeErr(w, http.StatusBadRequest, "artist name and at least one platform handle are required")
			return
		}
		writeErr(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}

	writeJSON(w, http.StatusAccepted, analyzeResp{
		AnalysisID:    job.ID,
		AnalysisToken: job.Token,
		Message:       "Analysis started",
	})
}

// Status godoc
// @Summary Poll analysis progress
// @Tags analysis
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} statusResp
// @Failure 404 {object} apiError
// @Router /status/{id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.svc.GetProgress(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeJSON(w, http.StatusNotFound, apiError{Message: "analysis not found or expired", Expired: true})
			return
		}
		writeErr(w, http.StatusInternalServerError, "failed to read progress")
		return
	}

	resp := statusResp{
		Progress:      job.Progress,
		Message:       job.Message,
		EstimatedTime: job.EstimatedDurationMs,
		Complete:      job.Complete,
		Error:         job.Error,
		ArtistSlug:    job.ResultSlug,
	}
	if job.Complete {
		success := job.Success
		resp.Success = &success
	}

	writeJSON(w, http.StatusOK, resp)
}

// Analysis godoc
// @Summary Fetch a stored analysis record
// @Tags analysis
// @Produce json
// @Param slug path string true "artist slug"
// @Success 200 {object} entity.AnalysisRecord
// @Failure 404 {object} apiError
// @Router /analysis/{slug} [get]
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rec, err := h.svc.GetAnalysis(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeErr(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "failed to read analysis")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
