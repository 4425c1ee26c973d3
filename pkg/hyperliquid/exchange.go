package hyperliquid

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gregtusar/hypergate/pkg/models"
)

// Exchange is the signed trading client. It maps coin names to asset indices
// from exchange metadata and signs every action with the wallet key.
type Exchange struct {
	client       *Client
	signer       *Signer
	vaultAddress string
	isMainnet    bool
	logger       *logrus.Logger

	mu         sync.Mutex
	assetIndex map[string]int
}

func NewExchange(signer *Signer, baseURL, vaultAddress string, logger *logrus.Logger) *Exchange {
	return &Exchange{
		client:       NewClient(baseURL, logger),
		signer:       signer,
		vaultAddress: vaultAddress,
		isMainnet:    !strings.Contains(baseURL, "testnet"),
		logger:       logger,
	}
}

// Wire shapes for signed actions. Field order matters: the action hash is
// computed over the msgpack encoding in declaration order.

type wireLimit struct {
	Tif string `json:"tif" msgpack:"tif"`
}

type wireTrigger struct {
	IsMarket  bool   `json:"isMarket" msgpack:"isMarket"`
	TriggerPx string `json:"triggerPx" msgpack:"triggerPx"`
	Tpsl      string `json:"tpsl" msgpack:"tpsl"`
}

type wireOrderType struct {
	Limit   *wireLimit   `json:"limit,omitempty" msgpack:"limit,omitempty"`
	Trigger *wireTrigger `json:"trigger,omitempty" msgpack:"trigger,omitempty"`
}

type wireOrder struct {
	Asset      int           `json:"a" msgpack:"a"`
	IsBuy      bool          `json:"b" msgpack:"b"`
	Price      string        `json:"p" msgpack:"p"`
	Size       string        `json:"s" msgpack:"s"`
	ReduceOnly bool          `json:"r" msgpack:"r"`
	Type       wireOrderType `json:"t" msgpack:"t"`
	Cloid      string        `json:"c,omitempty" msgpack:"c,omitempty"`
}

type orderAction struct {
	Type     string      `json:"type" msgpack:"type"`
	Orders   []wireOrder `json:"orders" msgpack:"orders"`
	Grouping string      `json:"grouping" msgpack:"grouping"`
}

type wireCancel struct {
	Asset int   `json:"a" msgpack:"a"`
	Oid   int64 `json:"o" msgpack:"o"`
}

type cancelAction struct {
	Type    string       `json:"type" msgpack:"type"`
	Cancels []wireCancel `json:"cancels" msgpack:"cancels"`
}

type modifyAction struct {
	Type  string    `json:"type" msgpack:"type"`
	Oid   int64     `json:"oid" msgpack:"oid"`
	Order wireOrder `json:"order" msgpack:"order"`
}

type exchangeRequest struct {
	Action       any       `json:"action"`
	Nonce        int64     `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress string    `json:"vaultAddress,omitempty"`
}

// floatToWire renders a price or size the way the exchange expects: a
// normalized decimal string with at most 8 fractional digits.
func floatToWire(x float64) string {
	return decimal.NewFromFloat(x).Round(8).String()
}

// assetID resolves a coin name to its universe index, fetching metadata once
// and caching the mapping.
func (e *Exchange) assetID(ctx context.Context, coin string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.assetIndex == nil {
		var meta models.Meta
		if err := e.client.post(ctx, "/info", map[string]any{"type": "meta"}, &meta); err != nil {
			return 0, err
		}
		index := make(map[string]int, len(meta.Universe))
		for i, asset := range meta.Universe {
			index[asset.Name] = i
		}
		e.assetIndex = index
	}
	id, ok := e.assetIndex[coin]
	if !ok {
		return 0, fmt.Errorf("coin %q not in exchange universe", coin)
	}
	return id, nil
}

func (e *Exchange) buildWireOrder(ctx context.Context, spec models.OrderSpec) (wireOrder, error) {
	asset, err := e.assetID(ctx, spec.Coin)
	if err != nil {
		return wireOrder{}, err
	}
	order := wireOrder{
		Asset:      asset,
		IsBuy:      spec.IsBuy,
		Price:      floatToWire(spec.LimitPx),
		Size:       floatToWire(spec.Size),
		ReduceOnly: spec.ReduceOnly,
		Cloid:      spec.Cloid,
	}
	switch {
	case spec.OrderType.Limit != nil:
		order.Type.Limit = &wireLimit{Tif: spec.OrderType.Limit.Tif}
	case spec.OrderType.Trigger != nil:
		order.Type.Trigger = &wireTrigger{
			IsMarket:  spec.OrderType.Trigger.IsMarket,
			TriggerPx: floatToWire(spec.OrderType.Trigger.TriggerPx),
			Tpsl:      spec.OrderType.Trigger.Tpsl,
		}
	default:
		return wireOrder{}, fmt.Errorf("order for %q has no order type", spec.Coin)
	}
	return order, nil
}

// dispatchAction signs and posts one action to the exchange endpoint.
func (e *Exchange) dispatchAction(ctx context.Context, action, out any) error {
	nonce := time.Now().UnixMilli()
	sig, err := e.signer.SignL1Action(action, e.vaultAddress, nonce, e.isMainnet)
	if err != nil {
		return err
	}
	req := exchangeRequest{
		Action:       action,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: e.vaultAddress,
	}
	return e.client.post(ctx, "/exchange", req, out)
}

func (e *Exchange) Order(ctx context.Context, spec models.OrderSpec) (*models.OrderResponse, error) {
	return e.BulkOrders(ctx, []models.OrderSpec{spec})
}

func (e *Exchange) BulkOrders(ctx context.Context, specs []models.OrderSpec) (*models.OrderResponse, error) {
	orders := make([]wireOrder, 0, len(specs))
	for _, spec := range specs {
		order, err := e.buildWireOrder(ctx, spec)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	action := orderAction{Type: "order", Orders: orders, Grouping: "na"}
	var resp models.OrderResponse
	if err := e.dispatchAction(ctx, action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (e *Exchange) Cancel(ctx context.Context, coin string, oid int64) (*models.CancelResponse, error) {
	return e.BulkCancel(ctx, []models.CancelRequest{{Coin: coin, Oid: oid}})
}

func (e *Exchange) BulkCancel(ctx context.Context, cancels []models.CancelRequest) (*models.CancelResponse, error) {
	wire := make([]wireCancel, 0, len(cancels))
	for _, cancel := range cancels {
		asset, err := e.assetID(ctx, cancel.Coin)
		if err != nil {
			return nil, err
		}
		wire = append(wire, wireCancel{Asset: asset, Oid: cancel.Oid})
	}
	action := cancelAction{Type: "cancel", Cancels: wire}
	var resp models.CancelResponse
	if err := e.dispatchAction(ctx, action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (e *Exchange) ModifyOrder(ctx context.Context, oid int64, spec models.OrderSpec) (*models.OrderResponse, error) {
	order, err := e.buildWireOrder(ctx, spec)
	if err != nil {
		return nil, err
	}
	action := modifyAction{Type: "modify", Oid: oid, Order: order}
	var resp models.OrderResponse
	if err := e.dispatchAction(ctx, action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
