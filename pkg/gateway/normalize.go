package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/gregtusar/hypergate/pkg/models"
)

// normalizeStatus maps one raw status entry to an OrderOutcome. The checks
// run in a fixed order and the first matching key wins; a record should only
// ever carry one of them. A record with none of the known keys is an
// "unknown" outcome carrying the raw payload, not an error.
func normalizeStatus(status models.RawOrderStatus) models.OrderOutcome {
	if raw, ok := status["resting"]; ok {
		var detail models.RestingDetail
		if err := json.Unmarshal(raw, &detail); err == nil {
			return models.OrderOutcome{
				Status:  models.OutcomeResting,
				OrderID: detail.Oid,
				Message: "Order resting on order book",
			}
		}
	}
	if raw, ok := status["filled"]; ok {
		var detail models.FilledDetail
		if err := json.Unmarshal(raw, &detail); err == nil {
			return models.OrderOutcome{
				Status:       models.OutcomeFilled,
				OrderID:      detail.Oid,
				TotalSize:    detail.TotalSz,
				AveragePrice: detail.AvgPx,
				Message:      "Order filled",
			}
		}
	}
	if raw, ok := status["error"]; ok {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			return models.OrderOutcome{
				Status:  models.OutcomeError,
				Error:   detail,
				Message: "Order failed",
			}
		}
	}
	raw, _ := json.Marshal(status)
	return models.OrderOutcome{
		Status:    models.OutcomeUnknown,
		RawStatus: raw,
	}
}

// normalizeResponse extracts the first status from an order response
// envelope and normalizes it.
func normalizeResponse(resp *models.OrderResponse) models.OrderOutcome {
	statuses := resp.Response.Data.Statuses
	if len(statuses) == 0 {
		return normalizeStatus(models.RawOrderStatus{})
	}
	return normalizeStatus(statuses[0])
}

// normalizeStatuses maps a raw status sequence positionally onto labels.
// Entries beyond the label sequence are labeled "unknown" rather than
// rejected, so an unexpected response shape still yields usable outcomes.
func normalizeStatuses(statuses []models.RawOrderStatus, labels []string) []models.OrderOutcome {
	outcomes := make([]models.OrderOutcome, 0, len(statuses))
	for i, status := range statuses {
		outcome := normalizeStatus(status)
		if i < len(labels) {
			outcome.Label = labels[i]
		} else {
			outcome.Label = "unknown"
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func accountSummary(state *models.UserState) models.AccountSummary {
	return models.AccountSummary{
		AccountValue:      state.MarginSummary.AccountValue,
		TotalMarginUsed:   state.MarginSummary.TotalMarginUsed,
		Withdrawable:      state.Withdrawable,
		NumberOfPositions: len(state.AssetPositions),
	}
}

func positionsSummary(state *models.UserState) models.PositionsSummary {
	return models.PositionsSummary{
		NumberOfPositions: len(state.AssetPositions),
		AccountValue:      state.MarginSummary.AccountValue,
		TotalMarginUsed:   state.MarginSummary.TotalMarginUsed,
	}
}

// balanceSummary computes availableBalance = accountValue - totalMarginUsed
// as an exact decimal subtraction, preserving the exchange's decimal string
// conventions.
func balanceSummary(state *models.UserState) (models.BalanceSummary, error) {
	accountValue, err := decimal.NewFromString(state.MarginSummary.AccountValue)
	if err != nil {
		return models.BalanceSummary{}, &NumericParseError{Field: "accountValue", cause: err}
	}
	marginUsed, err := decimal.NewFromString(state.MarginSummary.TotalMarginUsed)
	if err != nil {
		return models.BalanceSummary{}, &NumericParseError{Field: "totalMarginUsed", cause: err}
	}
	return models.BalanceSummary{
		AccountValue:     state.MarginSummary.AccountValue,
		Withdrawable:     state.Withdrawable,
		AvailableBalance: accountValue.Sub(marginUsed).String(),
	}, nil
}

func metaSummary(meta *models.Meta) models.MetaSummary {
	assets := make([]models.AssetWithIndex, 0, len(meta.Universe))
	for i, asset := range meta.Universe {
		assets = append(assets, models.AssetWithIndex{
			Index:        i,
			Name:         asset.Name,
			MaxLeverage:  asset.MaxLeverage,
			OnlyIsolated: asset.OnlyIsolated,
		})
	}
	return models.MetaSummary{
		NumberOfAssets:    len(meta.Universe),
		AssetsWithIndices: assets,
	}
}

func bookSummary(book *models.L2Book, coin string) models.BookSummary {
	summary := models.BookSummary{Coin: coin}
	if len(book.Levels) > 0 {
		summary.BidsCount = len(book.Levels[0])
	}
	if len(book.Levels) > 1 {
		summary.AsksCount = len(book.Levels[1])
	}
	return summary
}
