package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRequestUnmarshal(t *testing.T) {
	payload := `{
		"name": "Latex Gloves",
		"unit": "box",
		"unit_price_cents": 500,
		"batch_tracking": false,
		"expiry_alert_days": 14
	}`

	var req ItemRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, "Latex Gloves", req.Name)
	assert.Equal(t, int64(500), req.UnitPriceCents)
	require.NotNil(t, req.BatchTracking)
	assert.False(t, *req.BatchTracking)
	assert.False(t, req.batchTracking())
	assert.Equal(t, 14, req.ExpiryAlertDays)
}

func TestItemRequestBatchTrackingDefaultsOn(t *testing.T) {
	var req ItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name": "Composite Resin"}`), &req))

	assert.Nil(t, req.BatchTracking)
	assert.True(t, req.batchTracking())
}
