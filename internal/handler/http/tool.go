package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toolvault/toolvault/internal/service"
	"github.com/toolvault/toolvault/pkg/httputil"
	"github.com/toolvault/toolvault/pkg/validator"
)

// ToolHandler handles HTTP requests for catalog endpoints.
type ToolHandler struct {
	toolService   *service.ToolService
	reviewService *service.ReviewService
	logger        *slog.Logger
}

// NewToolHandler creates a new tool HTTP handler.
func NewToolHandler(toolSvc *service.ToolService, reviewSvc *service.ReviewService, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{
		toolService:   toolSvc,
		reviewService: reviewSvc,
		logger:        logger,
	}
}

// --- Request DTOs ---

// CreateToolRequest is the JSON request body for cataloging a tool.
type CreateToolRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	UseCase  string `json:"use_case" validate:"max=1000"`
	Category string `json:"category" validate:"max=100"`
	Pricing  string `json:"pricing" validate:"required"`
}

// UpdateToolRequest is the JSON request body for updating a tool. Omitted
// fields keep their current values.
type UpdateToolRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	UseCase  *string `json:"use_case" validate:"omitempty,max=1000"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Pricing  *string `json:"pricing"`
}

// --- Handlers ---

// ListTools handles GET /api/v1/tools
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.toolService.List(r.Context(),
		r.URL.Query().Get("category"),
		r.URL.Query().Get("pricing"),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tools})
}

// GetTool handles GET /api/v1/tools/{id}
func (h *ToolHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	tool, err := h.toolService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tool})
}

// CreateTool handles POST /api/v1/tools
func (h *ToolHandler) CreateTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tool, err := h.toolService.Create(r.Context(), service.CreateToolInput{
		Name:     req.Name,
		UseCase:  req.UseCase,
		Category: req.Category,
		Pricing:  req.Pricing,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: tool})
}

// UpdateTool handles PATCH /api/v1/tools/{id}
func (h *ToolHandler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tool, err := h.toolService.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateToolInput{
		Name:     req.Name,
		UseCase:  req.UseCase,
		Category: req.Category,
		Pricing:  req.Pricing,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tool})
}

// DeleteTool handles DELETE /api/v1/tools/{id}
func (h *ToolHandler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	if err := h.toolService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
