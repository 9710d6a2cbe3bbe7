// Package handler is the thin HTTP layer over the validation service. It
// parses requests, maps domain errors onto wire responses, and embeds no
// business logic.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"enrollcheck/internal/platform/middleware"
	"enrollcheck/internal/validation/models"
	dErrors "enrollcheck/pkg/domain-errors"
	"enrollcheck/pkg/requestcontext"
)

// Service defines the orchestrator operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, rawSubject string) (*models.ValidationProcess, error)
	GetStatus(ctx context.Context, rawProcessID string) (*models.ValidationProcess, error)
}

// Handler handles validation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a validation Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the validation routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	vr := chi.NewRouter()
	vr.Use(middleware.Recovery(h.logger))
	vr.Use(middleware.RequestID)
	vr.Use(middleware.Logger(h.logger))
	vr.Use(middleware.Timeout(15 * time.Second))
	vr.Use(middleware.ContentTypeJSON)
	vr.Post("/v1/validations", h.handleSubmit)
	vr.Get("/v1/validations/{processID}", h.handleGetStatus)

	r.Mount("/", vr)
}

type submitRequest struct {
	SubjectID string `json:"subject_id"`
}

type processResponse struct {
	ProcessID   string              `json:"process_id"`
	SubjectID   string              `json:"subject_id"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Message     string              `json:"message,omitempty"`
	ErrorDetail *models.ErrorDetail `json:"error_detail,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	p, err := h.service.Submit(r.Context(), req.SubjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, toResponse(p))
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "processID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponse(p))
}

func toResponse(p *models.ValidationProcess) processResponse {
	return processResponse{
		ProcessID:   p.ProcessID.String(),
		SubjectID:   p.SubjectID.String(),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Message:     p.Message,
		ErrorDetail: p.ErrorDetail,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response encoding failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"code", string(code),
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()))
	}
	h.writeJSON(w, status, errorResponse{Error: errorMessage(err), Code: string(code)})
}

func httpStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidFormat, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage exposes the coded message without the wrapped cause; driver
// details stay in logs.
func errorMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}
