package models

import (
	"encoding/json"
)

// Time-in-force values accepted by the exchange for limit orders.
const (
	TifGtc = "Gtc"
	TifIoc = "Ioc"
	TifAlo = "Alo"
)

// Trigger order roles.
const (
	TpslTakeProfit = "tp"
	TpslStopLoss   = "sl"
)

// NumericString holds a decimal value that callers may send either as a JSON
// string or a bare JSON number.
type NumericString string

func (n *NumericString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	*n = NumericString(b)
	return nil
}

func (n NumericString) String() string {
	return string(n)
}

// LimitParams configures a limit order leg.
type LimitParams struct {
	Tif string `json:"tif"`
}

// TriggerParams configures a trigger (take-profit / stop-loss) order leg as
// supplied by the caller. TriggerPx is normalized to a numeric value by the
// composer before dispatch.
type TriggerParams struct {
	TriggerPx NumericString `json:"triggerPx"`
	IsMarket  bool          `json:"isMarket"`
	Tpsl      string        `json:"tpsl"`
}

// OrderTypeParams is the caller-facing order type variant: exactly one of
// Limit or Trigger is set.
type OrderTypeParams struct {
	Limit   *LimitParams   `json:"limit,omitempty"`
	Trigger *TriggerParams `json:"trigger,omitempty"`
}

// LimitOrderType is the dispatch-ready limit variant.
type LimitOrderType struct {
	Tif string `json:"tif"`
}

// TriggerOrderType is the dispatch-ready trigger variant with a numeric
// trigger price.
type TriggerOrderType struct {
	TriggerPx float64 `json:"triggerPx"`
	IsMarket  bool    `json:"isMarket"`
	Tpsl      string  `json:"tpsl"`
}

// OrderType is the dispatch-ready order type variant: exactly one of Limit or
// Trigger is set.
type OrderType struct {
	Limit   *LimitOrderType   `json:"limit,omitempty"`
	Trigger *TriggerOrderType `json:"trigger,omitempty"`
}

// GtcLimit is the default order type when a caller omits one.
func GtcLimit() OrderType {
	return OrderType{Limit: &LimitOrderType{Tif: TifGtc}}
}

// OrderRequest is a caller request to place a single order. Size and Price are
// decimal strings; a Price of "" or "0" means market/trigger-driven.
type OrderRequest struct {
	Asset      int              `json:"asset"`
	IsBuy      bool             `json:"isBuy"`
	Size       string           `json:"size"`
	Price      string           `json:"price"`
	ReduceOnly bool             `json:"reduceOnly"`
	OrderType  *OrderTypeParams `json:"orderType,omitempty"`
	Cloid      string           `json:"cloid,omitempty"`
}

// BracketRequest is a caller request for an entry order plus paired
// take-profit and stop-loss exits submitted as one atomic batch.
type BracketRequest struct {
	Asset           int              `json:"asset"`
	IsBuy           bool             `json:"isBuy"`
	Size            string           `json:"size"`
	TakeProfitPrice string           `json:"takeProfitPrice"`
	StopLossPrice   string           `json:"stopLossPrice"`
	EntryPrice      string           `json:"entryPrice"`
	ReduceOnly      bool             `json:"reduceOnly"`
	EntryOrderType  *OrderTypeParams `json:"entryOrderType,omitempty"`
}

// ModifyRequest is a caller request to modify an existing order in place.
type ModifyRequest struct {
	Oid        int64            `json:"oid"`
	Coin       string           `json:"coin"`
	IsBuy      bool             `json:"isBuy"`
	Size       string           `json:"size"`
	Price      string           `json:"price"`
	ReduceOnly bool             `json:"reduceOnly"`
	OrderType  *OrderTypeParams `json:"orderType,omitempty"`
}

// OrderSpec is one validated, exchange-level order ready for dispatch.
type OrderSpec struct {
	Coin       string    `json:"coin"`
	IsBuy      bool      `json:"isBuy"`
	Size       float64   `json:"size"`
	LimitPx    float64   `json:"limitPx"`
	OrderType  OrderType `json:"orderType"`
	ReduceOnly bool      `json:"reduceOnly"`
	Cloid      string    `json:"cloid,omitempty"`
}

// CancelRequest identifies one open order to cancel.
type CancelRequest struct {
	Coin string `json:"coin"`
	Oid  int64  `json:"orderId"`
}
