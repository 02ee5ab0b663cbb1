package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"settlementId": "abc",
		"amount":       "500.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeSettlement, payload)
	after := time.Now()

	assert.Equal(t, "settlement.created", evt.Type)
	assert.Equal(t, EntityTypeSettlement, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": "p-42",
	}

	evt := NewEvent(EventTypePending, EntityTypeSettlement, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "settlement.pending", decoded["type"])
	assert.Equal(t, "settlement", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestSettlementEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "p-1",
		"amount": "500.00",
	}

	t.Run("SettlementCreated", func(t *testing.T) {
		evt := SettlementCreated(payload)
		assert.Equal(t, "settlement.created", evt.Type)
		assert.Equal(t, EntityTypeSettlement, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("SettlementPending", func(t *testing.T) {
		evt := SettlementPending(payload)
		assert.Equal(t, "settlement.pending", evt.Type)
		assert.Equal(t, EntityTypeSettlement, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("SettlementReconciled", func(t *testing.T) {
		evt := SettlementReconciled(payload)
		assert.Equal(t, "settlement.reconciled", evt.Type)
		assert.Equal(t, EntityTypeSettlement, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("SettlementVoided", func(t *testing.T) {
		evt := SettlementVoided(payload)
		assert.Equal(t, "settlement.voided", evt.Type)
		assert.Equal(t, EntityTypeSettlement, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}
