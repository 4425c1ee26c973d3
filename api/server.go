package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gregtusar/hypergate/pkg/gateway"
	"github.com/gregtusar/hypergate/pkg/models"
)

type Server struct {
	gateway *gateway.Gateway
	auth    *Authenticator
	logger  *logrus.Logger
	port    string
}

func NewServer(gw *gateway.Gateway, auth *Authenticator, logger *logrus.Logger, port string) *Server {
	return &Server{
		gateway: gw,
		auth:    auth,
		logger:  logger,
		port:    port,
	}
}

func (s *Server) Start() error {
	handler := s.Handler()

	s.logger.Infof("Starting API server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, handler)
}

// Handler builds the routed, CORS-wrapped and (when configured)
// auth-wrapped handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/time", s.handleServerTime)

	// Account & positions
	mux.HandleFunc("/api/account/info", s.handleAccountInfo)
	mux.HandleFunc("/api/account/positions", s.handlePositions)
	mux.HandleFunc("/api/account/balance", s.handleBalance)

	// Order management
	mux.HandleFunc("/api/orders/place", s.handlePlaceOrder)
	mux.HandleFunc("/api/orders/bracket", s.handleBracketOrder)
	mux.HandleFunc("/api/orders/cancel", s.handleCancelOrder)
	mux.HandleFunc("/api/orders/cancel-all", s.handleCancelAll)
	mux.HandleFunc("/api/orders/modify", s.handleModifyOrder)
	mux.HandleFunc("/api/orders/open", s.handleOpenOrders)
	mux.HandleFunc("/api/orders/status", s.handleOrderStatus)

	// History
	mux.HandleFunc("/api/fills", s.handleUserFills)
	mux.HandleFunc("/api/funding/user", s.handleUserFunding)
	mux.HandleFunc("/api/funding/history", s.handleFundingHistory)

	// Market data
	mux.HandleFunc("/api/market/meta", s.handleMeta)
	mux.HandleFunc("/api/market/mids", s.handleAllMids)
	mux.HandleFunc("/api/market/book", s.handleOrderBook)
	mux.HandleFunc("/api/market/trades", s.handleRecentTrades)
	mux.HandleFunc("/api/market/candles", s.handleCandles)

	// Vaults
	mux.HandleFunc("/api/vault/details", s.handleVaultDetails)
	mux.HandleFunc("/api/vault/performance", s.handleVaultPerformance)

	handler := corsMiddleware(mux)
	if s.auth != nil {
		handler = s.auth.Middleware(handler)
	}
	return handler
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Request bodies for operations with scalar parameters. Trading requests use
// the models package types directly.

type addressParams struct {
	UserAddress string `json:"userAddress"`
	Dex         string `json:"dex"`
}

type cancelParams struct {
	Coin string `json:"coin"`
	Oid  int64  `json:"oid"`
}

type statusParams struct {
	Oid         int64  `json:"oid"`
	UserAddress string `json:"userAddress"`
}

type fillsParams struct {
	StartTime       int64  `json:"startTime"`
	EndTime         *int64 `json:"endTime"`
	AggregateByTime bool   `json:"aggregateByTime"`
	UserAddress     string `json:"userAddress"`
}

type fundingParams struct {
	StartTime   int64  `json:"startTime"`
	EndTime     *int64 `json:"endTime"`
	UserAddress string `json:"userAddress"`
}

type coinParams struct {
	Coin string `json:"coin"`
}

type historyParams struct {
	Coin      string `json:"coin"`
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
}

type candlesParams struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
}

type vaultParams struct {
	VaultAddress string `json:"vaultAddress"`
}

type vaultRangeParams struct {
	VaultAddress string `json:"vaultAddress"`
	StartTime    int64  `json:"startTime"`
	EndTime      *int64 `json:"endTime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleServerTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.gateway.GetServerTime())
}

func (s *Server) handleAccountInfo(w http.ResponseWriter, r *http.Request) {
	var params addressParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetAccountInfo(r.Context(), params.UserAddress, params.Dex)
	s.respond(w, result, err)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	var params addressParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetPositions(r.Context(), params.UserAddress, params.Dex)
	s.respond(w, result, err)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var params addressParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetBalance(r.Context(), params.UserAddress, params.Dex)
	s.respond(w, result, err)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	result, err := s.gateway.PlaceOrder(r.Context(), &req)
	s.respond(w, result, err)
}

func (s *Server) handleBracketOrder(w http.ResponseWriter, r *http.Request) {
	var req models.BracketRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	result, err := s.gateway.PlaceBracketOrder(r.Context(), &req)
	s.respond(w, result, err)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var params cancelParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.CancelOrder(r.Context(), params.Coin, params.Oid)
	s.respond(w, result, err)
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	var params addressParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.CancelAllOrders(r.Context(), params.UserAddress, params.Dex)
	s.respond(w, result, err)
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	var req models.ModifyRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	result, err := s.gateway.ModifyOrder(r.Context(), &req)
	s.respond(w, result, err)
}

func (s *Server) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	var params addressParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetOpenOrders(r.Context(), params.UserAddress, params.Dex)
	s.respond(w, result, err)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var params statusParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetOrderStatus(r.Context(), params.Oid, params.UserAddress)
	s.respond(w, result, err)
}

func (s *Server) handleUserFills(w http.ResponseWriter, r *http.Request) {
	var params fillsParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetUserFills(r.Context(), params.StartTime, params.EndTime, params.AggregateByTime, params.UserAddress)
	s.respond(w, result, err)
}

func (s *Server) handleUserFunding(w http.ResponseWriter, r *http.Request) {
	var params fundingParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetUserFunding(r.Context(), params.StartTime, params.EndTime, params.UserAddress)
	s.respond(w, result, err)
}

func (s *Server) handleFundingHistory(w http.ResponseWriter, r *http.Request) {
	var params historyParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetHistoricalFunding(r.Context(), params.Coin, params.StartTime, params.EndTime)
	s.respond(w, result, err)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := s.gateway.GetMeta(r.Context())
	s.respond(w, result, err)
}

func (s *Server) handleAllMids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := s.gateway.GetAllMids(r.Context())
	s.respond(w, result, err)
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	var params coinParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetOrderBook(r.Context(), params.Coin)
	s.respond(w, result, err)
}

func (s *Server) handleRecentTrades(w http.ResponseWriter, r *http.Request) {
	var params coinParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetRecentTrades(r.Context(), params.Coin)
	s.respond(w, result, err)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	var params candlesParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.GetCandles(r.Context(), params.Coin, params.Interval, params.StartTime, params.EndTime)
	s.respond(w, result, err)
}

func (s *Server) handleVaultDetails(w http.ResponseWriter, r *http.Request) {
	var params vaultParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.VaultDetails(r.Context(), params.VaultAddress)
	s.respond(w, result, err)
}

func (s *Server) handleVaultPerformance(w http.ResponseWriter, r *http.Request) {
	var params vaultRangeParams
	if !s.decodePost(w, r, &params) {
		return
	}
	result, err := s.gateway.VaultPerformance(r.Context(), params.VaultAddress, params.StartTime, params.EndTime)
	s.respond(w, result, err)
}

// decodePost enforces POST and decodes the JSON body into dst. An empty body
// leaves dst at its zero value so parameterless calls work with no payload.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// respond renders either the operation result or a sanitized error. Raw
// request arguments never reach the error body.
func (s *Server) respond(w http.ResponseWriter, result any, err error) {
	if err != nil {
		s.writeJSON(w, errorStatus(err), map[string]string{"error": gateway.Sanitize(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func errorStatus(err error) int {
	var validationErr *gateway.ValidationError
	var numericErr *gateway.NumericParseError
	var dispatchErr *gateway.DispatchError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &numericErr):
		return http.StatusBadRequest
	case errors.As(err, &dispatchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
