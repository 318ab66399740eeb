package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/toolvault/toolvault/internal/domain"
	pkgkafka "github.com/toolvault/toolvault/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicReviewCreated   = "toolvault.review.created"
	TopicReviewModerated = "toolvault.review.moderated"
	TopicReviewDeleted   = "toolvault.review.deleted"
	TopicToolCreated     = "toolvault.tool.created"
	TopicToolUpdated     = "toolvault.tool.updated"
	TopicToolDeleted     = "toolvault.tool.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeTool   = "tool"
)

// Source identifier for events originating from this service.
const SourceToolVault = "toolvault"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID      string `json:"id"`
	ToolID  string `json:"tool_id"`
	OwnerID string `json:"owner_id"`
	Rating  int    `json:"user_rating"`
	Status  string `json:"approval_status"`
}

// ReviewModeratedData is the payload for a review.moderated event. It carries
// the tool's recomputed average so consumers can track rating movement
// without reading the catalog back.
type ReviewModeratedData struct {
	ReviewID  string  `json:"review_id"`
	ToolID    string  `json:"tool_id"`
	OldStatus string  `json:"old_status"`
	NewStatus string  `json:"new_status"`
	AvgRating float64 `json:"avg_rating"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ReviewID  string  `json:"review_id"`
	ToolID    string  `json:"tool_id"`
	AvgRating float64 `json:"avg_rating"`
}

// ToolData is the payload for tool.created and tool.updated events.
type ToolData struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UseCase   string  `json:"use_case"`
	Category  string  `json:"category"`
	Pricing   string  `json:"pricing"`
	AvgRating float64 `json:"avg_rating"`
}

// ToolDeletedData is the payload for a tool.deleted event.
type ToolDeletedData struct {
	ToolID string `json:"tool_id"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, rv *domain.Review) error {
	data := ReviewCreatedData{
		ID:      rv.ID,
		ToolID:  rv.ToolID,
		OwnerID: rv.OwnerID,
		Rating:  rv.Rating,
		Status:  string(rv.Status),
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, rv.ID, AggregateTypeReview, SourceToolVault, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", rv.ID),
		slog.String("tool_id", rv.ToolID),
	)

	return nil
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, reviewID, toolID string, oldStatus, newStatus domain.ReviewStatus, avgRating float64) error {
	data := ReviewModeratedData{
		ReviewID:  reviewID,
		ToolID:    toolID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		AvgRating: avgRating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewModerated, reviewID, AggregateTypeReview, SourceToolVault, data)
	if err != nil {
		return fmt.Errorf("create review.moderated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewModerated, event); err != nil {
		return fmt.Errorf("publish review.moderated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.moderated event",
		slog.String("review_id", reviewID),
		slog.String("old_status", string(oldStatus)),
		slog.String("new_status", string(newStatus)),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, toolID string, avgRating float64) error {
	data := ReviewDeletedData{
		ReviewID:  reviewID,
		ToolID:    toolID,
		AvgRating: avgRating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, AggregateTypeReview, SourceToolVault, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", reviewID),
		slog.String("tool_id", toolID),
	)

	return nil
}

// PublishToolCreated publishes a tool.created event.
func (p *Producer) PublishToolCreated(ctx context.Context, tool *domain.Tool) error {
	return p.publishTool(ctx, TopicToolCreated, tool)
}

// PublishToolUpdated publishes a tool.updated event.
func (p *Producer) PublishToolUpdated(ctx context.Context, tool *domain.Tool) error {
	return p.publishTool(ctx, TopicToolUpdated, tool)
}

func (p *Producer) publishTool(ctx context.Context, topic string, tool *domain.Tool) error {
	data := ToolData{
		ID:        tool.ID,
		Name:      tool.Name,
		UseCase:   tool.UseCase,
		Category:  tool.Category,
		Pricing:   string(tool.Pricing),
		AvgRating: tool.AvgRating,
	}

	event, err := pkgkafka.NewEvent(topic, tool.ID, AggregateTypeTool, SourceToolVault, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published tool event",
		slog.String("topic", topic),
		slog.String("tool_id", tool.ID),
	)

	return nil
}

// PublishToolDeleted publishes a tool.deleted event.
func (p *Producer) PublishToolDeleted(ctx context.Context, toolID string) error {
	event, err := pkgkafka.NewEvent(TopicToolDeleted, toolID, AggregateTypeTool, SourceToolVault, ToolDeletedData{ToolID: toolID})
	if err != nil {
		return fmt.Errorf("create tool.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicToolDeleted, event); err != nil {
		return fmt.Errorf("publish tool.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published tool.deleted event",
		slog.String("tool_id", toolID),
	)

	return nil
}
