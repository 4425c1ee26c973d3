package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregtusar/hypergate/pkg/models"
)

type fakeInfo struct {
	meta       *models.Meta
	metaErr    error
	metaCalls  int
	userState  *models.UserState
	openOrders []models.OpenOrder
	mids       map[string]string
}

func (f *fakeInfo) Meta(ctx context.Context) (*models.Meta, error) {
	f.metaCalls++
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeInfo) UserState(ctx context.Context, address, dex string) (*models.UserState, error) {
	return f.userState, nil
}

func (f *fakeInfo) OpenOrders(ctx context.Context, address, dex string) ([]models.OpenOrder, error) {
	return f.openOrders, nil
}

func (f *fakeInfo) OrderStatus(ctx context.Context, address string, oid int64) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"order"}`), nil
}

func (f *fakeInfo) UserFillsByTime(ctx context.Context, address string, startTime int64, endTime *int64, aggregateByTime bool) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *fakeInfo) UserFunding(ctx context.Context, address string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *fakeInfo) AllMids(ctx context.Context) (map[string]string, error) {
	return f.mids, nil
}

func (f *fakeInfo) L2Snapshot(ctx context.Context, coin string) (*models.L2Book, error) {
	return &models.L2Book{Coin: coin}, nil
}

func (f *fakeInfo) RecentTrades(ctx context.Context, coin string) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *fakeInfo) FundingHistory(ctx context.Context, coin string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *fakeInfo) CandlesSnapshot(ctx context.Context, coin, interval string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *fakeInfo) VaultDetails(ctx context.Context, vaultAddress string, startTime, endTime *int64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type fakeExchange struct {
	orderCalls  int
	bulkCalls   int
	cancelCalls int
	modifyCalls int
	lastSpecs   []models.OrderSpec
	lastCancels []models.CancelRequest
	orderResp   *models.OrderResponse
	cancelResp  *models.CancelResponse
	err         error
}

func (f *fakeExchange) Order(ctx context.Context, spec models.OrderSpec) (*models.OrderResponse, error) {
	f.orderCalls++
	f.lastSpecs = []models.OrderSpec{spec}
	if f.err != nil {
		return nil, f.err
	}
	return f.orderResp, nil
}

func (f *fakeExchange) BulkOrders(ctx context.Context, specs []models.OrderSpec) (*models.OrderResponse, error) {
	f.bulkCalls++
	f.lastSpecs = specs
	if f.err != nil {
		return nil, f.err
	}
	return f.orderResp, nil
}

func (f *fakeExchange) Cancel(ctx context.Context, coin string, oid int64) (*models.CancelResponse, error) {
	f.cancelCalls++
	f.lastCancels = []models.CancelRequest{{Coin: coin, Oid: oid}}
	if f.err != nil {
		return nil, f.err
	}
	return f.cancelResp, nil
}

func (f *fakeExchange) BulkCancel(ctx context.Context, cancels []models.CancelRequest) (*models.CancelResponse, error) {
	f.cancelCalls++
	f.lastCancels = cancels
	if f.err != nil {
		return nil, f.err
	}
	return f.cancelResp, nil
}

func (f *fakeExchange) ModifyOrder(ctx context.Context, oid int64, spec models.OrderSpec) (*models.OrderResponse, error) {
	f.modifyCalls++
	f.lastSpecs = []models.OrderSpec{spec}
	if f.err != nil {
		return nil, f.err
	}
	return f.orderResp, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func orderResponseWith(t *testing.T, statuses ...string) *models.OrderResponse {
	t.Helper()
	resp := &models.OrderResponse{Status: "ok"}
	for _, payload := range statuses {
		var status models.RawOrderStatus
		require.NoError(t, json.Unmarshal([]byte(payload), &status))
		resp.Response.Data.Statuses = append(resp.Response.Data.Statuses, status)
	}
	return resp
}

func newTestGateway(info *fakeInfo, exchange *fakeExchange) *Gateway {
	return New(Config{
		AccountAddress: "0x1234567890abcdef1234567890abcdef12345678",
		MaxOrderSize:   decimal.NewFromInt(100000),
	}, info, exchange, testLogger())
}

func TestPlaceOrderRestingOutcome(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC", "ETH")}}
	exchange := &fakeExchange{orderResp: orderResponseWith(t, `{"resting":{"oid":99}}`)}
	gw := newTestGateway(info, exchange)

	result, err := gw.PlaceOrder(context.Background(), &models.OrderRequest{
		Asset: 0,
		IsBuy: true,
		Size:  "0.5",
		Price: "50000",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, exchange.orderCalls)
	assert.Equal(t, models.OutcomeResting, result.OrderInfo.Status)
	assert.Equal(t, int64(99), result.OrderInfo.OrderID)
	assert.Equal(t, "Order placed for BTC", result.Message)

	require.Len(t, exchange.lastSpecs, 1)
	spec := exchange.lastSpecs[0]
	assert.Equal(t, "BTC", spec.Coin)
	require.NotNil(t, spec.OrderType.Limit)
	assert.Equal(t, models.TifGtc, spec.OrderType.Limit.Tif)
}

func TestPlaceOrderValidationFailureSkipsDispatch(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{}
	gw := newTestGateway(info, exchange)

	tests := []struct {
		name string
		req  models.OrderRequest
	}{
		{"asset out of range", models.OrderRequest{Asset: 5, Size: "1", Price: "100"}},
		{"zero size", models.OrderRequest{Asset: 0, Size: "0", Price: "100"}},
		{"unparseable size", models.OrderRequest{Asset: 0, Size: "a lot", Price: "100"}},
		{"notional over limit", models.OrderRequest{Asset: 0, Size: "100", Price: "50000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.PlaceOrder(context.Background(), &tt.req)
			require.Error(t, err)
			assert.Zero(t, exchange.orderCalls)
		})
	}
}

func TestPlaceOrderDispatchError(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{err: errors.New("connection refused")}
	gw := newTestGateway(info, exchange)

	_, err := gw.PlaceOrder(context.Background(), &models.OrderRequest{
		Asset: 0, Size: "1", Price: "100",
	})
	require.Error(t, err)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "order", dispatchErr.Op)
}

func TestPlaceBracketOrderLabels(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{orderResp: orderResponseWith(t,
		`{"resting":{"oid":1}}`,
		`{"resting":{"oid":2}}`,
		`{"error":"invalid trigger price"}`,
	)}
	gw := newTestGateway(info, exchange)

	result, err := gw.PlaceBracketOrder(context.Background(), &models.BracketRequest{
		Asset:           0,
		IsBuy:           true,
		Size:            "0.5",
		EntryPrice:      "50000",
		TakeProfitPrice: "55000",
		StopLossPrice:   "48000",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, exchange.bulkCalls)
	require.Len(t, exchange.lastSpecs, 3)
	require.Len(t, result.Orders, 3)

	assert.Equal(t, "entry", result.Orders[0].Label)
	assert.Equal(t, "take-profit", result.Orders[1].Label)
	assert.Equal(t, "stop-loss", result.Orders[2].Label)
	assert.Equal(t, models.OutcomeError, result.Orders[2].Status)
	assert.Equal(t, "invalid trigger price", result.Orders[2].Error)
}

func TestCancelOrderUnknownCoin(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{}
	gw := newTestGateway(info, exchange)

	_, err := gw.CancelOrder(context.Background(), "DOGE", 1)
	require.Error(t, err)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Zero(t, exchange.cancelCalls)
}

func TestCancelAllOrdersEmptyShortCircuits(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{}
	gw := newTestGateway(info, exchange)

	result, err := gw.CancelAllOrders(context.Background(), "", "")
	require.NoError(t, err)
	assert.Zero(t, exchange.cancelCalls)
	assert.Zero(t, result.CancelledCount)
	assert.Equal(t, "No open orders to cancel", result.Message)
	require.NotNil(t, result.Data)
	assert.Equal(t, "ok", result.Data.Status)
}

func TestCancelAllOrdersDispatchesEveryOpenOrder(t *testing.T) {
	info := &fakeInfo{
		meta: &models.Meta{Universe: universeOf("BTC", "ETH")},
		openOrders: []models.OpenOrder{
			{Coin: "BTC", Oid: 1},
			{Coin: "ETH", Oid: 2},
		},
	}
	exchange := &fakeExchange{cancelResp: &models.CancelResponse{Status: "ok"}}
	gw := newTestGateway(info, exchange)

	result, err := gw.CancelAllOrders(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, exchange.cancelCalls)
	assert.Equal(t, 2, result.CancelledCount)
	require.Len(t, exchange.lastCancels, 2)
}

func TestGetMetaRefreshesCoinCache(t *testing.T) {
	info := &fakeInfo{meta: &models.Meta{Universe: universeOf("BTC")}}
	exchange := &fakeExchange{cancelResp: &models.CancelResponse{Status: "ok"}}
	gw := newTestGateway(info, exchange)

	_, err := gw.GetMeta(context.Background())
	require.NoError(t, err)

	// Cached set from GetMeta serves validation without another meta fetch
	calls := info.metaCalls
	_, err = gw.CancelOrder(context.Background(), "BTC", 1)
	require.NoError(t, err)
	assert.Equal(t, calls, info.metaCalls)

	// A changed universe shows up after the next GetMeta
	info.meta = &models.Meta{Universe: universeOf("SOL")}
	_, err = gw.GetMeta(context.Background())
	require.NoError(t, err)
	_, err = gw.CancelOrder(context.Background(), "BTC", 1)
	require.Error(t, err)
}

func TestGetAllMidsPrefersFreshFeed(t *testing.T) {
	info := &fakeInfo{mids: map[string]string{"BTC": "50000"}}
	gw := newTestGateway(info, &fakeExchange{})
	gw.SetMidsSource(staticMids{mids: map[string]string{"BTC": "50001"}, fresh: true})

	result, err := gw.GetAllMids(context.Background())
	require.NoError(t, err)
	mids, ok := result.Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "50001", mids["BTC"])
}

func TestGetAllMidsFallsBackToREST(t *testing.T) {
	info := &fakeInfo{mids: map[string]string{"BTC": "50000"}}
	gw := newTestGateway(info, &fakeExchange{})
	gw.SetMidsSource(staticMids{fresh: false})

	result, err := gw.GetAllMids(context.Background())
	require.NoError(t, err)
	mids, ok := result.Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "50000", mids["BTC"])
}

type staticMids struct {
	mids  map[string]string
	fresh bool
}

func (s staticMids) Mids() (map[string]string, bool) {
	return s.mids, s.fresh
}

func TestResolveAddress(t *testing.T) {
	gw := newTestGateway(&fakeInfo{}, &fakeExchange{})

	assert.Equal(t, "0xabc", gw.resolveAddress("0xabc"))
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", gw.resolveAddress(""))
}

func TestMaskAddress(t *testing.T) {
	assert.Equal(t, "0x1234...5678", MaskAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, "***", MaskAddress("0x1234"))
	assert.Equal(t, "***", MaskAddress(""))
}
