package models

// AccountSummary is the compact projection of an account state payload.
type AccountSummary struct {
	AccountValue      string `json:"accountValue"`
	TotalMarginUsed   string `json:"totalMarginUsed"`
	Withdrawable      string `json:"withdrawable"`
	NumberOfPositions int    `json:"numberOfPositions"`
}

// PositionsSummary is the compact projection for the positions query.
type PositionsSummary struct {
	NumberOfPositions int    `json:"numberOfPositions"`
	AccountValue      string `json:"accountValue"`
	TotalMarginUsed   string `json:"totalMarginUsed"`
}

// BalanceSummary projects the balance view of an account state.
// AvailableBalance is accountValue minus totalMarginUsed, computed as an
// exact decimal subtraction and reported back as a string.
type BalanceSummary struct {
	AccountValue     string `json:"accountValue"`
	Withdrawable     string `json:"withdrawable"`
	AvailableBalance string `json:"availableBalance"`
}

// BalanceData is the raw balance fields surfaced alongside BalanceSummary.
type BalanceData struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
	Withdrawable    string `json:"withdrawable"`
}

// TimeRange echoes the window of a historical query. EndTime is the string
// "current" when the caller left the end open.
type TimeRange struct {
	StartTime int64 `json:"startTime"`
	EndTime   any   `json:"endTime"`
}

// MetaSummary is the compact projection of exchange metadata.
type MetaSummary struct {
	NumberOfAssets    int              `json:"numberOfAssets"`
	AssetsWithIndices []AssetWithIndex `json:"assetsWithIndices"`
}

// BookSummary is the compact projection of an order book snapshot.
type BookSummary struct {
	Coin      string `json:"coin"`
	BidsCount int    `json:"bidsCount"`
	AsksCount int    `json:"asksCount"`
}

// CountSummary is the generic "how many entries" projection used by list
// queries.
type CountSummary struct {
	Count int `json:"count"`
}
