package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregtusar/hypergate/pkg/gateway"
	"github.com/gregtusar/hypergate/pkg/models"
)

type stubInfo struct {
	metaErr error
}

func (s *stubInfo) Meta(ctx context.Context) (*models.Meta, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return &models.Meta{Universe: []models.Asset{{Name: "BTC"}}}, nil
}

func (s *stubInfo) UserState(ctx context.Context, address, dex string) (*models.UserState, error) {
	state := &models.UserState{Withdrawable: "100"}
	state.MarginSummary.AccountValue = "1000"
	state.MarginSummary.TotalMarginUsed = "200"
	return state, nil
}

func (s *stubInfo) OpenOrders(ctx context.Context, address, dex string) ([]models.OpenOrder, error) {
	return nil, nil
}

func (s *stubInfo) OrderStatus(ctx context.Context, address string, oid int64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (s *stubInfo) UserFillsByTime(ctx context.Context, address string, startTime int64, endTime *int64, aggregateByTime bool) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *stubInfo) UserFunding(ctx context.Context, address string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *stubInfo) AllMids(ctx context.Context) (map[string]string, error) {
	return map[string]string{"BTC": "50000"}, nil
}

func (s *stubInfo) L2Snapshot(ctx context.Context, coin string) (*models.L2Book, error) {
	return &models.L2Book{Coin: coin}, nil
}

func (s *stubInfo) RecentTrades(ctx context.Context, coin string) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *stubInfo) FundingHistory(ctx context.Context, coin string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *stubInfo) CandlesSnapshot(ctx context.Context, coin, interval string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *stubInfo) VaultDetails(ctx context.Context, vaultAddress string, startTime, endTime *int64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type stubExchange struct{}

func (s *stubExchange) Order(ctx context.Context, spec models.OrderSpec) (*models.OrderResponse, error) {
	return &models.OrderResponse{Status: "ok"}, nil
}

func (s *stubExchange) BulkOrders(ctx context.Context, specs []models.OrderSpec) (*models.OrderResponse, error) {
	return &models.OrderResponse{Status: "ok"}, nil
}

func (s *stubExchange) Cancel(ctx context.Context, coin string, oid int64) (*models.CancelResponse, error) {
	return &models.CancelResponse{Status: "ok"}, nil
}

func (s *stubExchange) BulkCancel(ctx context.Context, cancels []models.CancelRequest) (*models.CancelResponse, error) {
	return &models.CancelResponse{Status: "ok"}, nil
}

func (s *stubExchange) ModifyOrder(ctx context.Context, oid int64, spec models.OrderSpec) (*models.OrderResponse, error) {
	return &models.OrderResponse{Status: "ok"}, nil
}

func testServer(info *stubInfo) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	gw := gateway.New(gateway.Config{
		AccountAddress: "0x1234567890abcdef1234567890abcdef12345678",
		MaxOrderSize:   decimal.NewFromInt(100000),
	}, info, &stubExchange{}, logger)
	return NewServer(gw, nil, logger, "0")
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestPostOnlyEndpointsRejectGet(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/place", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/account/balance", strings.NewReader(`{}`))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Message string `json:"message"`
		Summary struct {
			AvailableBalance string `json:"availableBalance"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Balance retrieved", result.Message)
	assert.Equal(t, "800", result.Summary.AvailableBalance)
}

func TestValidationErrorMapsToBadRequest(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/place",
		strings.NewReader(`{"asset":0,"isBuy":true,"size":"0","price":"100"}`))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ValidationError: order size must be positive", body["error"])
}

func TestDispatchErrorMapsToBadGateway(t *testing.T) {
	server := testServer(&stubInfo{metaErr: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/market/meta", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "DispatchError:")
}

func TestMalformedBodyMapsToBadRequest(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/place", strings.NewReader(`{not json`))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyBodyUsesDefaults(t *testing.T) {
	server := testServer(&stubInfo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/account/info", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
