package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-ai-api/internal/config"
)

func TestCalculateBackoff(t *testing.T) {
	b := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, b.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, b.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, b.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, b.CalculateBackoff(3))
	assert.Equal(t, 5*time.Second, b.CalculateBackoff(10))
}

func TestBackoffFromConfig(t *testing.T) {
	b := BackoffFromConfig(config.BackoffConfig{Initial: 500 * time.Millisecond})
	assert.Equal(t, 500*time.Millisecond, b.Initial)
	assert.Equal(t, time.Minute, b.Max)
	assert.Equal(t, 2.0, b.Multiplier)
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "dlq:stream:seo:bulk", StreamBulkJob.DLQStream())
}

func TestDecodeMessage(t *testing.T) {
	msg, err := NewMessage("job-1", MessageTypeBulkJob, &BulkJobMessage{JobID: "job-1", ItemCount: 3})
	require.NoError(t, err)
	msg.SetMetadata("request_id", "req-1")

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	got, err := decodeMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"data": string(raw)}})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeBulkJob, got.Type)
	assert.Equal(t, "req-1", got.GetMetadata("request_id"))

	var payload BulkJobMessage
	require.NoError(t, got.UnmarshalPayload(&payload))
	assert.Equal(t, BulkJobMessage{JobID: "job-1", ItemCount: 3}, payload)

	_, err = decodeMessage(redis.XMessage{ID: "2-0", Values: map[string]any{}})
	assert.Error(t, err)

	_, err = decodeMessage(redis.XMessage{ID: "3-0", Values: map[string]any{"data": "{bad"}})
	assert.Error(t, err)
}
