package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/toolvault/toolvault/internal/cache"
	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/event"
	"github.com/toolvault/toolvault/internal/repository"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

// CreateToolInput holds the parameters for cataloging a new tool.
type CreateToolInput struct {
	Name     string
	UseCase  string
	Category string
	Pricing  string
}

// UpdateToolInput holds the optional fields for updating a tool. Nil fields
// are left untouched. The average rating is not updatable: it is derived
// from APPROVED reviews only.
type UpdateToolInput struct {
	Name     *string
	UseCase  *string
	Category *string
	Pricing  *string
}

// ToolService implements the business logic for catalog operations.
type ToolService struct {
	toolRepo  repository.ToolRepository
	toolCache *cache.ToolCache
	producer  *event.Producer
	logger    *slog.Logger
}

// NewToolService creates a new tool service.
func NewToolService(
	toolRepo repository.ToolRepository,
	toolCache *cache.ToolCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ToolService {
	return &ToolService{
		toolRepo:  toolRepo,
		toolCache: toolCache,
		producer:  producer,
		logger:    logger,
	}
}

// Create catalogs a new tool with a zero rating.
func (s *ToolService) Create(ctx context.Context, input CreateToolInput) (*domain.Tool, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	pricing, err := domain.ParsePricingType(input.Pricing)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tool := &domain.Tool{
		ID:        uuid.New().String(),
		Name:      input.Name,
		UseCase:   input.UseCase,
		Category:  input.Category,
		Pricing:   pricing,
		AvgRating: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.toolRepo.Create(ctx, tool); err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}

	if err := s.producer.PublishToolCreated(ctx, tool); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.created event",
			slog.String("tool_id", tool.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool created",
		slog.String("tool_id", tool.ID),
		slog.String("name", tool.Name),
	)

	return tool, nil
}

// Get returns a tool by ID, reading through the cache when one is wired.
func (s *ToolService) Get(ctx context.Context, id string) (*domain.Tool, error) {
	if s.toolCache != nil {
		if tool, err := s.toolCache.Get(ctx, id); err == nil {
			return tool, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "tool cache read failed",
				slog.String("tool_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.toolCache != nil {
		if err := s.toolCache.Set(ctx, tool); err != nil {
			s.logger.WarnContext(ctx, "tool cache write failed",
				slog.String("tool_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return tool, nil
}

// List returns tools matching the given filters.
func (s *ToolService) List(ctx context.Context, category, pricing string) ([]domain.Tool, error) {
	filter := repository.ToolFilter{}
	if category != "" {
		filter.Category = &category
	}
	if pricing != "" {
		p, err := domain.ParsePricingType(pricing)
		if err != nil {
			return nil, err
		}
		filter.Pricing = &p
	}

	return s.toolRepo.List(ctx, filter)
}

// Update applies a partial update to a tool and invalidates its cache entry.
func (s *ToolService) Update(ctx context.Context, id string, input UpdateToolInput) (*domain.Tool, error) {
	upd := repository.ToolUpdate{
		Name:     input.Name,
		UseCase:  input.UseCase,
		Category: input.Category,
	}
	if input.Pricing != nil {
		pricing, err := domain.ParsePricingType(*input.Pricing)
		if err != nil {
			return nil, err
		}
		upd.Pricing = &pricing
	}

	tool, err := s.toolRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	if err := s.producer.PublishToolUpdated(ctx, tool); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.updated event",
			slog.String("tool_id", tool.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool updated",
		slog.String("tool_id", tool.ID),
	)

	return tool, nil
}

// Delete removes a tool and all of its reviews.
func (s *ToolService) Delete(ctx context.Context, id string) error {
	if err := s.toolRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)

	if err := s.producer.PublishToolDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.deleted event",
			slog.String("tool_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool deleted",
		slog.String("tool_id", id),
	)

	return nil
}

func (s *ToolService) invalidate(ctx context.Context, id string) {
	if s.toolCache == nil {
		return
	}
	if err := s.toolCache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate tool cache",
			slog.String("tool_id", id),
			slog.String("error", err.Error()),
		)
	}
}
