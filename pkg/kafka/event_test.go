package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderatedPayload struct {
	ReviewID  string  `json:"review_id"`
	ToolID    string  `json:"tool_id"`
	AvgRating float64 `json:"avg_rating"`
}

func TestNewEvent(t *testing.T) {
	payload := moderatedPayload{ReviewID: "rev-1", ToolID: "tool-1", AvgRating: 4.5}

	ev, err := NewEvent("review.moderated", "rev-1", "review", "toolvault", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "review.moderated", ev.EventType)
	assert.Equal(t, "rev-1", ev.AggregateID)
	assert.Equal(t, "review", ev.AggregateType)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	var decoded moderatedPayload
	require.NoError(t, ev.UnmarshalData(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnserializableData(t *testing.T) {
	_, err := NewEvent("review.moderated", "rev-1", "review", "toolvault", make(chan int))
	assert.Error(t, err)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	ev, err := NewEvent("tool.created", "tool-1", "tool", "toolvault", nil)
	require.NoError(t, err)

	ev.WithCorrelationID("corr-7")
	assert.Equal(t, "corr-7", ev.CorrelationID)

	data, err := ev.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "corr-7")
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.False(t, cfg.Async)
}
