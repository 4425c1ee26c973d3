package models

import (
	"encoding/json"
)

// OutcomeStatus classifies a normalized order result.
type OutcomeStatus string

const (
	OutcomeResting OutcomeStatus = "resting"
	OutcomeFilled  OutcomeStatus = "filled"
	OutcomeError   OutcomeStatus = "error"
	OutcomeUnknown OutcomeStatus = "unknown"
)

// OrderOutcome is the normalized form of one raw order status. Only the
// fields belonging to Status are ever populated. Fill sizes and prices are
// passed through as the exchange-reported decimal strings.
type OrderOutcome struct {
	Status       OutcomeStatus   `json:"status"`
	OrderID      int64           `json:"orderId,omitempty"`
	TotalSize    string          `json:"totalSize,omitempty"`
	AveragePrice string          `json:"averagePrice,omitempty"`
	Error        string          `json:"error,omitempty"`
	RawStatus    json.RawMessage `json:"rawStatus,omitempty"`
	Message      string          `json:"message,omitempty"`
	Label        string          `json:"orderType,omitempty"`
}

// RawOrderStatus is one raw status entry as returned by the exchange: a
// mapping carrying exactly one of the keys "resting", "filled" or "error",
// or none at all.
type RawOrderStatus map[string]json.RawMessage

// RestingDetail is the payload under a "resting" status key.
type RestingDetail struct {
	Oid int64 `json:"oid"`
}

// FilledDetail is the payload under a "filled" status key.
type FilledDetail struct {
	Oid     int64  `json:"oid"`
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
}

// OrderResponse is the raw envelope the exchange returns for order placement
// and modification calls.
type OrderResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []RawOrderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

// CancelResponse is the raw envelope the exchange returns for cancellation
// calls.
type CancelResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
}
