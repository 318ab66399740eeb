package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/repository"
	"github.com/toolvault/toolvault/internal/service"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

type mockToolRepo struct {
	mock.Mock
}

func (m *mockToolRepo) Create(ctx context.Context, tool *domain.Tool) error {
	args := m.Called(ctx, tool)
	return args.Error(0)
}

func (m *mockToolRepo) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *mockToolRepo) List(ctx context.Context, filter repository.ToolFilter) ([]domain.Tool, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tool), args.Error(1)
}

func (m *mockToolRepo) Update(ctx context.Context, id string, upd repository.ToolUpdate) (*domain.Tool, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *mockToolRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func toolTestHandler(repo *mockToolRepo) *ToolHandler {
	toolSvc := service.NewToolService(repo, nil, reviewTestEventProducer(), reviewTestLogger())
	reviewSvc := service.NewReviewService(new(mockReviewRepo), nil, reviewTestEventProducer(), reviewTestLogger())
	return NewToolHandler(toolSvc, reviewSvc, reviewTestLogger())
}

func toolRouter(handler *ToolHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/tools", func(r chi.Router) {
		r.Get("/", handler.ListTools)
		r.Get("/{id}", handler.GetTool)
		r.Post("/", handler.CreateTool)
		r.Patch("/{id}", handler.UpdateTool)
		r.Delete("/{id}", handler.DeleteTool)
	})
	return r
}

func catalogTool() *domain.Tool {
	now := time.Now().UTC()
	return &domain.Tool{
		ID:        "tool-001",
		Name:      "CodeHelper",
		UseCase:   "code completion",
		Category:  "developer-tools",
		Pricing:   domain.PricingSubscription,
		AvgRating: 4.2,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateTool_Success(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Tool")).Return(nil)

	b, _ := json.Marshal(CreateToolRequest{
		Name:    "CodeHelper",
		Pricing: "SUBSCRIPTION",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, data["avg_rating"])
	repo.AssertExpectations(t)
}

func TestCreateTool_InvalidPricing(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	b, _ := json.Marshal(CreateToolRequest{Name: "CodeHelper", Pricing: "FREEMIUM"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestGetTool_Success(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	tool := catalogTool()
	repo.On("GetByID", mock.Anything, tool.ID).Return(tool, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools/tool-001", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CodeHelper", data["name"])
	assert.Equal(t, 4.2, data["avg_rating"])
}

func TestGetTool_NotFound(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	repo.On("GetByID", mock.Anything, "missing").
		Return(nil, apperrors.NotFound("tool", "missing"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools/missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTools_PricingFilter(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	pricing := domain.PricingPaid
	repo.On("List", mock.Anything, repository.ToolFilter{Pricing: &pricing}).
		Return([]domain.Tool{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools?pricing=PAID", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdateTool_Success(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	name := "CodeHelper Pro"
	updated := catalogTool()
	updated.Name = name
	repo.On("Update", mock.Anything, "tool-001", repository.ToolUpdate{Name: &name}).
		Return(updated, nil)

	b, _ := json.Marshal(UpdateToolRequest{Name: &name})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/tools/tool-001", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteTool_Success(t *testing.T) {
	repo := new(mockToolRepo)
	router := toolRouter(toolTestHandler(repo))

	repo.On("Delete", mock.Anything, "tool-001").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tools/tool-001", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}
