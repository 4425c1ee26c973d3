package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gregtusar/hypergate/pkg/models"
)

// InfoClient is the read-only exchange query surface the gateway depends on.
type InfoClient interface {
	Meta(ctx context.Context) (*models.Meta, error)
	UserState(ctx context.Context, address, dex string) (*models.UserState, error)
	OpenOrders(ctx context.Context, address, dex string) ([]models.OpenOrder, error)
	OrderStatus(ctx context.Context, address string, oid int64) (json.RawMessage, error)
	UserFillsByTime(ctx context.Context, address string, startTime int64, endTime *int64, aggregateByTime bool) ([]json.RawMessage, error)
	UserFunding(ctx context.Context, address string, startTime int64, endTime *int64) ([]json.RawMessage, error)
	AllMids(ctx context.Context) (map[string]string, error)
	L2Snapshot(ctx context.Context, coin string) (*models.L2Book, error)
	RecentTrades(ctx context.Context, coin string) ([]json.RawMessage, error)
	FundingHistory(ctx context.Context, coin string, startTime int64, endTime *int64) ([]json.RawMessage, error)
	CandlesSnapshot(ctx context.Context, coin, interval string, startTime int64, endTime *int64) ([]json.RawMessage, error)
	VaultDetails(ctx context.Context, vaultAddress string, startTime, endTime *int64) (json.RawMessage, error)
}

// ExchangeClient is the signed trading surface the gateway depends on. All
// methods may fail with a transport error distinct from a semantic "order
// rejected" status inside the response.
type ExchangeClient interface {
	Order(ctx context.Context, spec models.OrderSpec) (*models.OrderResponse, error)
	BulkOrders(ctx context.Context, specs []models.OrderSpec) (*models.OrderResponse, error)
	Cancel(ctx context.Context, coin string, oid int64) (*models.CancelResponse, error)
	BulkCancel(ctx context.Context, cancels []models.CancelRequest) (*models.CancelResponse, error)
	ModifyOrder(ctx context.Context, oid int64, spec models.OrderSpec) (*models.OrderResponse, error)
}

// MidsSource is an optional live mid-price feed. When it reports fresh data
// the gateway serves all-mids queries from it instead of the REST API.
type MidsSource interface {
	Mids() (map[string]string, bool)
}

// Config carries the gateway's resolved trading identity and limits.
type Config struct {
	AccountAddress string
	VaultAddress   string
	MaxOrderSize   decimal.Decimal
}

// Gateway sequences validate, resolve, compose, dispatch and normalize for
// every trading and query operation. It is safe for concurrent use; the coin
// cache is its only shared mutable state.
type Gateway struct {
	cfg      Config
	info     InfoClient
	exchange ExchangeClient
	mids     MidsSource
	coins    coinCache
	logger   *logrus.Logger
}

func New(cfg Config, info InfoClient, exchange ExchangeClient, logger *logrus.Logger) *Gateway {
	return &Gateway{
		cfg:      cfg,
		info:     info,
		exchange: exchange,
		logger:   logger,
	}
}

// SetMidsSource attaches a live mid-price feed.
func (g *Gateway) SetMidsSource(src MidsSource) {
	g.mids = src
}

// Result is the normalized payload for query operations.
type Result struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Summary any    `json:"summary,omitempty"`
}

type PlaceOrderResult struct {
	Message   string                `json:"message"`
	Data      *models.OrderResponse `json:"data,omitempty"`
	OrderInfo models.OrderOutcome   `json:"orderInfo"`
}

type BracketOrderResult struct {
	Message string                `json:"message"`
	Data    *models.OrderResponse `json:"data,omitempty"`
	Orders  []models.OrderOutcome `json:"orders"`
}

type CancelOrderResult struct {
	Message        string                 `json:"message"`
	Data           *models.CancelResponse `json:"data,omitempty"`
	CancelledOrder models.CancelRequest   `json:"cancelledOrder"`
}

type CancelAllResult struct {
	Message        string                 `json:"message"`
	Data           *models.CancelResponse `json:"data,omitempty"`
	CancelledCount int                    `json:"cancelledCount"`
}

type ModifiedOrder struct {
	OrderID  int64   `json:"orderId"`
	Coin     string  `json:"coin"`
	NewPrice float64 `json:"newPrice"`
	NewSize  float64 `json:"newSize"`
}

type ModifyOrderResult struct {
	Message       string                `json:"message"`
	Data          *models.OrderResponse `json:"data,omitempty"`
	ModifiedOrder ModifiedOrder         `json:"modifiedOrder"`
}

type OrderStatusResult struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	OrderID int64           `json:"orderId"`
}

// resolveAddress returns the explicit address when given, else the configured
// trading identity. Address format checking belongs to the signing layer.
func (g *Gateway) resolveAddress(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return g.cfg.AccountAddress
}

// validCoins returns the cached coin set, building it from fresh metadata on
// first use.
func (g *Gateway) validCoins(ctx context.Context) (coinSet, error) {
	if set, ok := g.coins.get(); ok {
		return set, nil
	}
	meta, err := g.info.Meta(ctx)
	if err != nil {
		return nil, dispatchError("meta", err)
	}
	return g.coins.replace(meta.Universe), nil
}

func timeRange(startTime int64, endTime *int64) models.TimeRange {
	if endTime == nil {
		return models.TimeRange{StartTime: startTime, EndTime: "current"}
	}
	return models.TimeRange{StartTime: startTime, EndTime: *endTime}
}

// --- Account & position management ---

func (g *Gateway) GetAccountInfo(ctx context.Context, userAddress, dex string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	state, err := g.info.UserState(ctx, address, dex)
	if err != nil {
		return nil, dispatchError("user state", err)
	}
	return &Result{
		Message: "Account information retrieved",
		Data:    state,
		Summary: accountSummary(state),
	}, nil
}

func (g *Gateway) GetPositions(ctx context.Context, userAddress, dex string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	state, err := g.info.UserState(ctx, address, dex)
	if err != nil {
		return nil, dispatchError("user state", err)
	}
	return &Result{
		Message: "Positions retrieved",
		Data: map[string]any{
			"assetPositions":     state.AssetPositions,
			"marginSummary":      state.MarginSummary,
			"crossMarginSummary": state.CrossMarginSummary,
			"withdrawable":       state.Withdrawable,
		},
		Summary: positionsSummary(state),
	}, nil
}

func (g *Gateway) GetBalance(ctx context.Context, userAddress, dex string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	state, err := g.info.UserState(ctx, address, dex)
	if err != nil {
		return nil, dispatchError("user state", err)
	}
	summary, err := balanceSummary(state)
	if err != nil {
		return nil, err
	}
	return &Result{
		Message: "Balance retrieved",
		Data: models.BalanceData{
			AccountValue:    state.MarginSummary.AccountValue,
			TotalMarginUsed: state.MarginSummary.TotalMarginUsed,
			TotalNtlPos:     state.MarginSummary.TotalNtlPos,
			TotalRawUsd:     state.MarginSummary.TotalRawUsd,
			Withdrawable:    state.Withdrawable,
		},
		Summary: summary,
	}, nil
}

// --- Order management ---

// PlaceOrder validates and dispatches one order. All validation happens
// before any exchange call except the metadata fetch that defines the
// universe the request is validated against.
func (g *Gateway) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*PlaceOrderResult, error) {
	meta, err := g.info.Meta(ctx)
	if err != nil {
		return nil, dispatchError("meta", err)
	}
	if err := validateAssetIndex(req.Asset, len(meta.Universe)); err != nil {
		return nil, err
	}
	size, err := parseFloat("size", req.Size)
	if err != nil {
		return nil, err
	}
	price, err := parseOptionalFloat("price", req.Price)
	if err != nil {
		return nil, err
	}
	if err := validateOrderSize(decimal.NewFromFloat(size), decimal.NewFromFloat(price), g.cfg.MaxOrderSize); err != nil {
		return nil, err
	}
	orderType, err := composeOrderType(req.OrderType)
	if err != nil {
		return nil, err
	}

	coin := meta.Universe[req.Asset].Name
	spec := composeOrder(coin, req.IsBuy, size, price, orderType, req.ReduceOnly, req.Cloid)

	resp, err := g.exchange.Order(ctx, spec)
	if err != nil {
		return nil, dispatchError("order", err)
	}

	g.logger.WithFields(logrus.Fields{
		"coin": coin,
		"side": side(req.IsBuy),
	}).Info("Order placed")

	return &PlaceOrderResult{
		Message:   "Order placed for " + coin,
		Data:      resp,
		OrderInfo: normalizeResponse(resp),
	}, nil
}

// PlaceBracketOrder dispatches entry, take-profit and stop-loss as one bulk
// call. Atomicity is delegated to the exchange's bulk endpoint; if only some
// legs succeed no compensation is attempted here.
func (g *Gateway) PlaceBracketOrder(ctx context.Context, req *models.BracketRequest) (*BracketOrderResult, error) {
	meta, err := g.info.Meta(ctx)
	if err != nil {
		return nil, dispatchError("meta", err)
	}
	if err := validateAssetIndex(req.Asset, len(meta.Universe)); err != nil {
		return nil, err
	}
	size, err := parseFloat("size", req.Size)
	if err != nil {
		return nil, err
	}
	entryPx, err := parseOptionalFloat("entryPrice", req.EntryPrice)
	if err != nil {
		return nil, err
	}
	tpPx, err := parseFloat("takeProfitPrice", req.TakeProfitPrice)
	if err != nil {
		return nil, err
	}
	slPx, err := parseFloat("stopLossPrice", req.StopLossPrice)
	if err != nil {
		return nil, err
	}
	if err := validateOrderSize(decimal.NewFromFloat(size), decimal.NewFromFloat(entryPx), g.cfg.MaxOrderSize); err != nil {
		return nil, err
	}
	entryType, err := composeOrderType(req.EntryOrderType)
	if err != nil {
		return nil, err
	}

	coin := meta.Universe[req.Asset].Name
	specs := composeBracket(coin, req.IsBuy, size, entryPx, tpPx, slPx, entryType, req.ReduceOnly)

	resp, err := g.exchange.BulkOrders(ctx, specs)
	if err != nil {
		return nil, dispatchError("bulk orders", err)
	}

	g.logger.WithField("coin", coin).Info("Bracket order placed")

	return &BracketOrderResult{
		Message: "Bracket order placed",
		Data:    resp,
		Orders:  normalizeStatuses(resp.Response.Data.Statuses, bracketLabels),
	}, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, coin string, oid int64) (*CancelOrderResult, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(coin, validCoins); err != nil {
		return nil, err
	}
	resp, err := g.exchange.Cancel(ctx, coin, oid)
	if err != nil {
		return nil, dispatchError("cancel", err)
	}
	return &CancelOrderResult{
		Message:        "Order cancelled for " + coin,
		Data:           resp,
		CancelledOrder: models.CancelRequest{Coin: coin, Oid: oid},
	}, nil
}

// CancelAllOrders cancels every open order for the address. An empty open
// order list short-circuits with a zero count and no dispatch call.
func (g *Gateway) CancelAllOrders(ctx context.Context, userAddress, dex string) (*CancelAllResult, error) {
	address := g.resolveAddress(userAddress)
	openOrders, err := g.info.OpenOrders(ctx, address, dex)
	if err != nil {
		return nil, dispatchError("open orders", err)
	}
	if len(openOrders) == 0 {
		return &CancelAllResult{
			Message:        "No open orders to cancel",
			Data:           &models.CancelResponse{Status: "ok"},
			CancelledCount: 0,
		}, nil
	}
	cancels := composeCancelAll(openOrders)
	resp, err := g.exchange.BulkCancel(ctx, cancels)
	if err != nil {
		return nil, dispatchError("bulk cancel", err)
	}
	g.logger.WithField("count", len(cancels)).Info("Cancelled open orders")
	return &CancelAllResult{
		Message:        "Cancelled open orders",
		Data:           resp,
		CancelledCount: len(cancels),
	}, nil
}

func (g *Gateway) ModifyOrder(ctx context.Context, req *models.ModifyRequest) (*ModifyOrderResult, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(req.Coin, validCoins); err != nil {
		return nil, err
	}
	size, err := parseFloat("size", req.Size)
	if err != nil {
		return nil, err
	}
	price, err := parseFloat("price", req.Price)
	if err != nil {
		return nil, err
	}
	if err := validateOrderSize(decimal.NewFromFloat(size), decimal.NewFromFloat(price), g.cfg.MaxOrderSize); err != nil {
		return nil, err
	}
	orderType, err := composeOrderType(req.OrderType)
	if err != nil {
		return nil, err
	}

	spec := composeOrder(req.Coin, req.IsBuy, size, price, orderType, req.ReduceOnly, "")
	resp, err := g.exchange.ModifyOrder(ctx, req.Oid, spec)
	if err != nil {
		return nil, dispatchError("modify order", err)
	}
	return &ModifyOrderResult{
		Message: "Order modified",
		Data:    resp,
		ModifiedOrder: ModifiedOrder{
			OrderID:  req.Oid,
			Coin:     req.Coin,
			NewPrice: price,
			NewSize:  size,
		},
	}, nil
}

// --- Order queries ---

func (g *Gateway) GetOpenOrders(ctx context.Context, userAddress, dex string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	openOrders, err := g.info.OpenOrders(ctx, address, dex)
	if err != nil {
		return nil, dispatchError("open orders", err)
	}
	return &Result{
		Message: "Open orders retrieved",
		Data:    openOrders,
		Summary: map[string]int{"numberOfOrders": len(openOrders)},
	}, nil
}

func (g *Gateway) GetOrderStatus(ctx context.Context, oid int64, userAddress string) (*OrderStatusResult, error) {
	address := g.resolveAddress(userAddress)
	raw, err := g.info.OrderStatus(ctx, address, oid)
	if err != nil {
		return nil, dispatchError("order status", err)
	}
	return &OrderStatusResult{
		Message: "Order status retrieved",
		Data:    raw,
		OrderID: oid,
	}, nil
}

func (g *Gateway) GetUserFills(ctx context.Context, startTime int64, endTime *int64, aggregateByTime bool, userAddress string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	fills, err := g.info.UserFillsByTime(ctx, address, startTime, endTime, aggregateByTime)
	if err != nil {
		return nil, dispatchError("user fills", err)
	}
	return &Result{
		Message: "User fills retrieved",
		Data:    fills,
		Summary: map[string]any{
			"numberOfFills": len(fills),
			"timeRange":     timeRange(startTime, endTime),
		},
	}, nil
}

func (g *Gateway) GetUserFunding(ctx context.Context, startTime int64, endTime *int64, userAddress string) (*Result, error) {
	address := g.resolveAddress(userAddress)
	entries, err := g.info.UserFunding(ctx, address, startTime, endTime)
	if err != nil {
		return nil, dispatchError("user funding", err)
	}
	return &Result{
		Message: "User funding retrieved",
		Data:    entries,
		Summary: map[string]any{
			"numberOfEntries": len(entries),
			"timeRange":       timeRange(startTime, endTime),
		},
	}, nil
}

// --- Market data ---

// GetMeta returns exchange metadata and is the cache's single explicit
// refresh point: the coin set is rebuilt from this fresh universe.
func (g *Gateway) GetMeta(ctx context.Context) (*Result, error) {
	meta, err := g.info.Meta(ctx)
	if err != nil {
		return nil, dispatchError("meta", err)
	}
	g.coins.replace(meta.Universe)
	return &Result{
		Message: "Exchange metadata retrieved",
		Data:    meta,
		Summary: metaSummary(meta),
	}, nil
}

func (g *Gateway) GetAllMids(ctx context.Context) (*Result, error) {
	if g.mids != nil {
		if mids, ok := g.mids.Mids(); ok {
			return &Result{
				Message: "All mid prices retrieved",
				Data:    mids,
				Summary: models.CountSummary{Count: len(mids)},
			}, nil
		}
	}
	mids, err := g.info.AllMids(ctx)
	if err != nil {
		return nil, dispatchError("all mids", err)
	}
	return &Result{
		Message: "All mid prices retrieved",
		Data:    mids,
		Summary: models.CountSummary{Count: len(mids)},
	}, nil
}

func (g *Gateway) GetOrderBook(ctx context.Context, coin string) (*Result, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(coin, validCoins); err != nil {
		return nil, err
	}
	book, err := g.info.L2Snapshot(ctx, coin)
	if err != nil {
		return nil, dispatchError("l2 snapshot", err)
	}
	return &Result{
		Message: "Order book for " + coin + " retrieved",
		Data:    book,
		Summary: bookSummary(book, coin),
	}, nil
}

func (g *Gateway) GetRecentTrades(ctx context.Context, coin string) (*Result, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(coin, validCoins); err != nil {
		return nil, err
	}
	trades, err := g.info.RecentTrades(ctx, coin)
	if err != nil {
		return nil, dispatchError("recent trades", err)
	}
	return &Result{
		Message: "Recent trades for " + coin + " retrieved",
		Data:    trades,
		Summary: map[string]any{"coin": coin, "numberOfTrades": len(trades)},
	}, nil
}

func (g *Gateway) GetHistoricalFunding(ctx context.Context, coin string, startTime int64, endTime *int64) (*Result, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(coin, validCoins); err != nil {
		return nil, err
	}
	entries, err := g.info.FundingHistory(ctx, coin, startTime, endTime)
	if err != nil {
		return nil, dispatchError("funding history", err)
	}
	return &Result{
		Message: "Historical funding for " + coin + " retrieved",
		Data:    entries,
		Summary: map[string]any{"coin": coin, "numberOfEntries": len(entries)},
	}, nil
}

func (g *Gateway) GetCandles(ctx context.Context, coin, interval string, startTime int64, endTime *int64) (*Result, error) {
	validCoins, err := g.validCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCoinName(coin, validCoins); err != nil {
		return nil, err
	}
	candles, err := g.info.CandlesSnapshot(ctx, coin, interval, startTime, endTime)
	if err != nil {
		return nil, dispatchError("candles snapshot", err)
	}
	return &Result{
		Message: "Candles for " + coin + " (" + interval + ") retrieved",
		Data:    candles,
		Summary: map[string]any{
			"coin":            coin,
			"interval":        interval,
			"numberOfCandles": len(candles),
		},
	}, nil
}

// --- Vault management ---

func (g *Gateway) VaultDetails(ctx context.Context, vaultAddress string) (*Result, error) {
	raw, err := g.info.VaultDetails(ctx, vaultAddress, nil, nil)
	if err != nil {
		return nil, dispatchError("vault details", err)
	}
	return &Result{
		Message: "Vault details retrieved",
		Data:    raw,
		Summary: map[string]string{"vaultAddress": vaultAddress},
	}, nil
}

func (g *Gateway) VaultPerformance(ctx context.Context, vaultAddress string, startTime int64, endTime *int64) (*Result, error) {
	raw, err := g.info.VaultDetails(ctx, vaultAddress, &startTime, endTime)
	if err != nil {
		return nil, dispatchError("vault details", err)
	}
	return &Result{
		Message: "Vault performance retrieved",
		Data:    raw,
		Summary: map[string]any{
			"vaultAddress": vaultAddress,
			"timeRange":    timeRange(startTime, endTime),
		},
	}, nil
}

// --- Utility ---

func (g *Gateway) GetServerTime() *Result {
	return &Result{
		Message: "Server time retrieved",
		Data:    map[string]int64{"serverTime": time.Now().UnixMilli()},
	}
}

func side(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

// MaskAddress shortens a wallet address for safe logging.
func MaskAddress(address string) string {
	if len(address) >= 10 {
		return address[:6] + "..." + address[len(address)-4:]
	}
	return "***"
}
