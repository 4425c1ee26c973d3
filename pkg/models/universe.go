package models

import (
	"encoding/json"
)

// Asset is one tradable perpetual in the exchange universe. The position of
// an asset in the universe is its stable index used in order placement.
type Asset struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
}

// Meta is the exchange metadata payload. The universe ordering is
// authoritative: index i in the slice is asset index i.
type Meta struct {
	Universe []Asset `json:"universe"`
}

// AssetWithIndex pairs an asset with its universe index for caller-facing
// summaries.
type AssetWithIndex struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated"`
}

// MarginSummary is the margin section of an account state payload. Values are
// exchange-reported decimal strings.
type MarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
}

// UserState is the raw account state payload for one address.
type UserState struct {
	MarginSummary      MarginSummary     `json:"marginSummary"`
	CrossMarginSummary *MarginSummary    `json:"crossMarginSummary,omitempty"`
	AssetPositions     []json.RawMessage `json:"assetPositions"`
	Withdrawable       string            `json:"withdrawable"`
}

// OpenOrder is one resting order as reported by the open-orders query.
type OpenOrder struct {
	Coin      string `json:"coin"`
	Oid       int64  `json:"oid"`
	Side      string `json:"side"`
	LimitPx   string `json:"limitPx"`
	Sz        string `json:"sz"`
	Timestamp int64  `json:"timestamp"`
}

// L2Book is an order book snapshot. Levels[0] holds bids, Levels[1] asks.
type L2Book struct {
	Coin   string              `json:"coin"`
	Levels [][]json.RawMessage `json:"levels"`
	Time   int64               `json:"time"`
}
