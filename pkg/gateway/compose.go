package gateway

import (
	"strconv"

	"github.com/gregtusar/hypergate/pkg/models"
)

// bracketLabels aligns positionally with the order sequence composeBracket
// builds: entry always first, then the two exits.
var bracketLabels = []string{"entry", "take-profit", "stop-loss"}

// parseFloat converts a caller-supplied decimal string, reporting failures as
// NumericParseError rather than ValidationError.
func parseFloat(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &NumericParseError{Field: field, cause: err}
	}
	return f, nil
}

// parseOptionalFloat treats an empty string as zero (market/trigger-driven).
func parseOptionalFloat(field, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return parseFloat(field, value)
}

// composeOrderType normalizes caller order-type params into the dispatch
// variant, converting a string trigger price to numeric. A nil params means
// the default good-til-cancelled limit.
func composeOrderType(params *models.OrderTypeParams) (models.OrderType, error) {
	if params == nil {
		return models.GtcLimit(), nil
	}
	switch {
	case params.Limit != nil:
		tif := params.Limit.Tif
		if tif == "" {
			tif = models.TifGtc
		}
		return models.OrderType{Limit: &models.LimitOrderType{Tif: tif}}, nil
	case params.Trigger != nil:
		triggerPx, err := parseFloat("triggerPx", params.Trigger.TriggerPx.String())
		if err != nil {
			return models.OrderType{}, err
		}
		return models.OrderType{Trigger: &models.TriggerOrderType{
			TriggerPx: triggerPx,
			IsMarket:  params.Trigger.IsMarket,
			Tpsl:      params.Trigger.Tpsl,
		}}, nil
	default:
		return models.OrderType{}, validationErrorf("orderType must specify limit or trigger")
	}
}

// composeOrder builds the single exchange-level spec for a validated order.
func composeOrder(coin string, isBuy bool, size, limitPx float64, orderType models.OrderType, reduceOnly bool, cloid string) models.OrderSpec {
	return models.OrderSpec{
		Coin:       coin,
		IsBuy:      isBuy,
		Size:       size,
		LimitPx:    limitPx,
		OrderType:  orderType,
		ReduceOnly: reduceOnly,
		Cloid:      cloid,
	}
}

// composeBracket builds the three-leg order sequence for a bracket: the entry
// as specified, then take-profit and stop-loss exits on the opposite side
// with reduce-only forced on. The entry is always first so outcome labels
// align deterministically.
func composeBracket(coin string, isBuy bool, size, entryPx, tpPx, slPx float64, entryType models.OrderType, reduceOnly bool) []models.OrderSpec {
	return []models.OrderSpec{
		{
			Coin:       coin,
			IsBuy:      isBuy,
			Size:       size,
			LimitPx:    entryPx,
			OrderType:  entryType,
			ReduceOnly: reduceOnly,
		},
		{
			Coin:    coin,
			IsBuy:   !isBuy,
			Size:    size,
			LimitPx: tpPx,
			OrderType: models.OrderType{Trigger: &models.TriggerOrderType{
				TriggerPx: tpPx,
				IsMarket:  false,
				Tpsl:      models.TpslTakeProfit,
			}},
			ReduceOnly: true,
		},
		{
			Coin:    coin,
			IsBuy:   !isBuy,
			Size:    size,
			LimitPx: slPx,
			OrderType: models.OrderType{Trigger: &models.TriggerOrderType{
				TriggerPx: slPx,
				IsMarket:  false,
				Tpsl:      models.TpslStopLoss,
			}},
			ReduceOnly: true,
		},
	}
}

// composeCancelAll builds one cancellation per open order, preserving the
// (coin, orderId) pairing.
func composeCancelAll(openOrders []models.OpenOrder) []models.CancelRequest {
	cancels := make([]models.CancelRequest, 0, len(openOrders))
	for _, order := range openOrders {
		cancels = append(cancels, models.CancelRequest{Coin: order.Coin, Oid: order.Oid})
	}
	return cancels
}
