package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringAcceptsStringAndNumber(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"quoted string", `{"triggerPx":"50000.5"}`, "50000.5"},
		{"bare number", `{"triggerPx":50000.5}`, "50000.5"},
		{"bare integer", `{"triggerPx":48000}`, "48000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params TriggerParams
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &params))
			assert.Equal(t, tt.want, params.TriggerPx.String())
		})
	}
}

func TestOrderRequestDecodesTriggerOrderType(t *testing.T) {
	payload := `{
		"asset": 3,
		"isBuy": false,
		"size": "0.25",
		"price": "0",
		"reduceOnly": true,
		"orderType": {"trigger": {"triggerPx": 48000, "isMarket": true, "tpsl": "sl"}}
	}`

	var req OrderRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	assert.Equal(t, 3, req.Asset)
	assert.True(t, req.ReduceOnly)
	require.NotNil(t, req.OrderType)
	require.NotNil(t, req.OrderType.Trigger)
	assert.Equal(t, "48000", req.OrderType.Trigger.TriggerPx.String())
	assert.True(t, req.OrderType.Trigger.IsMarket)
	assert.Equal(t, TpslStopLoss, req.OrderType.Trigger.Tpsl)
	assert.Nil(t, req.OrderType.Limit)
}

func TestGtcLimitDefault(t *testing.T) {
	orderType := GtcLimit()
	require.NotNil(t, orderType.Limit)
	assert.Equal(t, TifGtc, orderType.Limit.Tif)
	assert.Nil(t, orderType.Trigger)
}
