// Package handlers provides pure JSON API handlers
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/alchemorsel/nutrilabel/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutrilabel/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIHandlers contains pure JSON API handlers for label generation
type APIHandlers struct {
	labelService inbound.LabelService
	logger       *zap.Logger
}

// NewAPIHandlers creates new API handlers
func NewAPIHandlers(labelService inbound.LabelService, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{
		labelService: labelService,
		logger:       logger.Named("api-handlers"),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ParseRequest is the body of POST /recipes/parse
type ParseRequest struct {
	Text string `json:"text"`
}

// ResolveRequest is the body of POST /recipes/resolve
type ResolveRequest struct {
	Draft *inbound.Draft `json:"draft"`
	Skip  []string       `json:"skip"`
}

// CreateLabelRequest is the body of POST /labels. A request carrying a
// draft finalizes it; otherwise the text is run through every stage.
type CreateLabelRequest struct {
	Draft            *inbound.Draft `json:"draft,omitempty"`
	Text             string         `json:"text,omitempty"`
	ServingSizeGrams float64        `json:"serving_size_grams"`
	YieldFactor      float64        `json:"yield_factor"`
	Skip             []string       `json:"skip,omitempty"`
}

// Routes mounts the handlers on r
func (h *APIHandlers) Routes(r chi.Router) {
	r.Route("/recipes", func(r chi.Router) {
		r.Post("/parse", h.ParseRecipe)
		r.Post("/resolve", h.ResolveRecipe)
	})

	r.Route("/labels", func(r chi.Router) {
		r.Get("/", h.ListLabels)
		r.Post("/", h.CreateLabel)
		r.Get("/{id}", h.GetLabel)
		r.Get("/{id}/rescale", h.RescaleLabel)
	})
}

// ParseRecipe handles POST /api/v1/recipes/parse
func (h *APIHandlers) ParseRecipe(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !h.decode(w, r, &req) {
		return
	}

	draft, err := h.labelService.Parse(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: draft})
}

// ResolveRecipe handles POST /api/v1/recipes/resolve
func (h *APIHandlers) ResolveRecipe(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	draft, err := h.labelService.Resolve(r.Context(), req.Draft, req.Skip)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: draft})
}

// CreateLabel handles POST /api/v1/labels
func (h *APIHandlers) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var req CreateLabelRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		dto *inbound.LabelDTO
		err error
	)
	if req.Draft != nil {
		dto, err = h.labelService.Finalize(r.Context(), req.Draft, inbound.FinalizeCommand{
			ServingSizeGrams: req.ServingSizeGrams,
			YieldFactor:      req.YieldFactor,
		})
	} else {
		dto, err = h.labelService.Generate(r.Context(), inbound.GenerateLabelCommand{
			Text:             req.Text,
			ServingSizeGrams: req.ServingSizeGrams,
			YieldFactor:      req.YieldFactor,
			Skip:             req.Skip,
		})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/labels/"+dto.ID.String())
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    dto,
		Message: "Label created",
	})
}

// ListLabels handles GET /api/v1/labels
func (h *APIHandlers) ListLabels(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.labelService.ListLabels(r.Context(), inbound.PaginationParams{
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
}

// GetLabel handles GET /api/v1/labels/{id}
func (h *APIHandlers) GetLabel(w http.ResponseWriter, r *http.Request) {
	id, err := labelID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	dto, err := h.labelService.GetLabel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: dto})
}

// RescaleLabel handles GET /api/v1/labels/{id}/rescale?serving_size_grams=N
func (h *APIHandlers) RescaleLabel(w http.ResponseWriter, r *http.Request) {
	id, err := labelID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	serving, err := strconv.ParseFloat(r.URL.Query().Get("serving_size_grams"), 64)
	if err != nil {
		h.writeError(w, r, apperrors.NewBadRequestError("serving_size_grams must be a number"))
		return
	}

	dto, err := h.labelService.Rescale(r.Context(), inbound.RescaleCommand{
		LabelID:          id,
		ServingSizeGrams: serving,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: dto})
}

func labelID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("Invalid label ID")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewBadRequestError(name + " must be an integer")
	}
	return v, nil
}

// decode reads a JSON body into dst, writing the error response itself
// when the body is unusable
func (h *APIHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		middleware.WriteError(w, r, http.StatusRequestEntityTooLarge,
			apperrors.NewBadRequestError("Request body too large"))
	case errors.Is(err, io.EOF):
		middleware.WriteError(w, r, 0, apperrors.NewBadRequestError("Request body is empty"))
	default:
		middleware.WriteError(w, r, 0, apperrors.NewAppError(apperrors.CodeBadRequest, "Invalid JSON body", err.Error()))
	}
	return false
}

// writeError renders a service error. Anything that is not an AppError is
// reported as an internal error without its detail.
func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.Wrap(err, "Internal server error")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err))
	}
	middleware.WriteError(w, r, 0, appErr)
}

// writeJSON writes a JSON response
func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
