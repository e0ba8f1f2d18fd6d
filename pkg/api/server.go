package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/core/outbox"
	"github.com/uhyunpark/homebroker/pkg/app/matching"
	"github.com/uhyunpark/homebroker/pkg/feed"
	"github.com/uhyunpark/homebroker/pkg/storage"
)

const (
	userCookie       = "user_id"
	userCookieMaxAge = 30 * 24 * 60 * 60
	defaultTradeList = 100
	maxTradeList     = 1000
)

// History serves journaled fills and orders. *storage.Journal implements it.
type History interface {
	RecentFills(symbol string, limit int) ([]storage.FillRecord, error)
	OwnerOrders(owner string) ([]storage.OrderRecord, error)
}

// Server handles REST API and WebSocket connections
type Server struct {
	registry *matching.Registry
	symbol   string // market served by the unscoped /api/orders routes
	router   *mux.Router
	hub      *Hub
	outbox   *outbox.Outbox
	history  History
	origins  []string
	log      *zap.SugaredLogger

	httpServer *http.Server
}

type Option func(*Server)

// WithOutbox queues every engine result for the journal and fill stream.
func WithOutbox(o *outbox.Outbox) Option { return func(s *Server) { s.outbox = o } }

// WithHistory enables the /api/history routes.
func WithHistory(h History) Option { return func(s *Server) { s.history = h } }

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Server) { s.log = l } }

// NewServer creates a new API server. symbol must be registered.
func NewServer(registry *matching.Registry, symbol string, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		symbol:   symbol,
		router:   mux.NewRouter(),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.log)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Orders on the default market, owned by the cookie user
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders", s.handleGetOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods("DELETE")
	api.HandleFunc("/orders/{id}", s.handleUpdateOrder).Methods("PUT")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")

	// Market endpoints
	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleGetMarketTrades).Methods("GET")

	// Journal
	api.HandleFunc("/history/{symbol}/trades", s.handleGetHistoryTrades).Methods("GET")
	api.HandleFunc("/history/orders", s.handleGetHistoryOrders).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start starts the hub and serves HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Infow("api_listening", "addr", addr, "symbol", s.symbol)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	eng, ok := s.engine(w, s.symbol)
	if !ok {
		return
	}

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	orderReq, err := req.toOrderRequest(userID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	fills, order, err := eng.Submit(orderReq)
	if err != nil {
		s.log.Infow("order_rejected", "user_id", userID, "err", err)
		respondEngineError(w, err)
		return
	}

	s.afterWrite(eng, fills, order)

	respondJSON(w, http.StatusCreated, SubmitOrderResponse{
		OrderID: order.ID,
		Status:  order.Status.String(),
		Fills:   toTradeInfos(fills, userID),
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	eng, ok := s.engine(w, s.symbol)
	if !ok {
		return
	}
	orderID := mux.Vars(r)["id"]

	if err := eng.Cancel(orderID, userID); err != nil {
		respondEngineError(w, err)
		return
	}
	if o, err := eng.Order(orderID); err == nil {
		s.afterWrite(eng, nil, o)
	}

	respondJSON(w, http.StatusOK, CancelOrderResponse{Status: "cancelled", OrderID: orderID})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	eng, ok := s.engine(w, s.symbol)
	if !ok {
		return
	}
	orderID := mux.Vars(r)["id"]

	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	o, err := eng.Update(orderID, userID, req.Price, req.Quantity)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	s.afterWrite(eng, nil, o)

	respondJSON(w, http.StatusOK, toOrderInfo(o))
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	eng, ok := s.engine(w, s.symbol)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: toOrderInfos(eng.UserOrders(userID))})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	eng, ok := s.engine(w, s.symbol)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, TradesResponse{Trades: toTradeInfos(eng.UserFills(userID), userID)})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		symbol = s.symbol
	}
	eng, ok := s.engine(w, symbol)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toOrderbookSnapshot(eng.OrderBook()))
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	symbols := s.registry.Symbols()
	out := make([]MarketInfo, 0, len(symbols))
	for _, sym := range symbols {
		eng, err := s.registry.Get(sym)
		if err != nil {
			continue
		}
		bid, hasBid := eng.BestBid()
		ask, hasAsk := eng.BestAsk()
		out = append(out, MarketInfo{
			Symbol:    sym,
			BestBid:   nullDecimal(bid, hasBid),
			BestAsk:   nullDecimal(ask, hasAsk),
			LastPrice: eng.LastPrice(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// handleGetMarketTrades returns the newest in-memory fills of a market,
// newest first.
func (s *Server) handleGetMarketTrades(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}
	limit := parseLimit(r)

	fills := eng.Fills()
	out := make([]MarketTrade, 0, limit)
	for i := len(fills) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, toMarketTrade(fills[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHistoryTrades(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, "history_disabled", "journal is not configured")
		return
	}
	recs, err := s.history.RecentFills(mux.Vars(r)["symbol"], parseLimit(r))
	if err != nil {
		s.log.Warnw("history_read_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "journal read failed", err.Error())
		return
	}
	out := make([]MarketTrade, len(recs))
	for i, rec := range recs {
		out[i] = fromFillRecord(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHistoryOrders(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if s.history == nil {
		respondError(w, http.StatusNotFound, "history_disabled", "journal is not configured")
		return
	}
	recs, err := s.history.OwnerOrders(userID)
	if err != nil {
		s.log.Warnw("history_read_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "journal read failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"markets": s.registry.Count(),
		"clients": s.hub.ClientCount(),
	})
}

// ==============================
// Broadcast Methods
// ==============================

// OnTick is a feed.TickHandler: it publishes the external snapshot and the
// fills the reconciliation pass produced.
func (s *Server) OnTick(symbol string, t feed.Tick, fills []orderbook.Fill) {
	s.hub.BroadcastToChannel(marketDataChannel(symbol), WSMessage{
		Type: "market_data",
		Data: MarketDataUpdate{
			Symbol:    symbol,
			Price:     t.Mid,
			Bids:      levelsToAPI(t.Bids),
			Asks:      levelsToAPI(t.Asks),
			Timestamp: time.Now().UnixMilli(),
		},
	})

	if len(fills) == 0 {
		return
	}
	eng, err := s.registry.Get(symbol)
	if err != nil {
		return
	}
	s.afterWrite(eng, fills)
}

// BroadcastOrderbook pushes the aggregated book of eng to its subscribers.
func (s *Server) BroadcastOrderbook(eng *matching.Engine) {
	s.hub.BroadcastToChannel(orderbookChannel(eng.Symbol()), WSMessage{
		Type: "order_book_update",
		Data: toOrderbookSnapshot(eng.OrderBook()),
	})
}

// afterWrite fans an engine result out: outbox, per-user fill and order
// messages, and the book broadcast. changed holds orders the call touched
// directly; counterparties of fills are looked up.
func (s *Server) afterWrite(eng *matching.Engine, fills []orderbook.Fill, changed ...orderbook.Order) {
	orders := make(map[string]orderbook.Order, len(changed))
	for _, o := range changed {
		orders[o.ID] = o
	}
	for _, f := range fills {
		for _, id := range []string{f.BuyOrderID, f.SellOrderID} {
			if id == orderbook.SentinelOrderID {
				continue
			}
			if _, seen := orders[id]; seen {
				continue
			}
			if o, err := eng.Order(id); err == nil {
				orders[id] = o
			}
		}
	}

	if s.outbox != nil {
		list := make([]orderbook.Order, 0, len(orders))
		for _, o := range orders {
			list = append(list, o)
		}
		s.outbox.Push(fills, list...)
	}

	users := make(map[string]bool)
	for _, f := range fills {
		for i, owner := range []string{f.BuyerID, f.SellerID} {
			if orderbook.IsSentinel(owner) || (i == 1 && owner == f.BuyerID) {
				continue
			}
			if ti, ok := toTradeInfo(f, owner); ok {
				s.hub.SendToUser(owner, WSMessage{Type: "fill", Data: FillUpdate{TradeInfo: ti}})
			}
			users[owner] = true
		}
	}
	for _, o := range orders {
		users[o.Owner] = true
	}
	for owner := range users {
		s.hub.SendToUser(owner, WSMessage{
			Type: "orders_update",
			Data: toOrderInfos(eng.UserOrders(owner)),
		})
	}

	s.BroadcastOrderbook(eng)
}

// ==============================
// Helper Functions
// ==============================

// userID returns the caller's id from the user_id cookie, issuing a new one
// when absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(userCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   userCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Infow("user_created", "user_id", id)
	return id
}

func (s *Server) engine(w http.ResponseWriter, symbol string) (*matching.Engine, bool) {
	eng, err := s.registry.Get(symbol)
	if err != nil {
		respondEngineError(w, err)
		return nil, false
	}
	return eng, true
}

func (req SubmitOrderRequest) toOrderRequest(owner string) (orderbook.OrderRequest, error) {
	side, err := orderbook.ParseSide(req.Side)
	if err != nil {
		return orderbook.OrderRequest{}, err
	}
	kind, err := orderbook.ParseKind(req.OrderType)
	if err != nil {
		return orderbook.OrderRequest{}, err
	}
	price := req.Price
	// clients send 0 for "no price" on market orders
	if kind == orderbook.Market && price != nil && price.IsZero() {
		price = nil
	}
	return orderbook.OrderRequest{
		ID:    req.ID,
		Owner: owner,
		Side:  side,
		Kind:  kind,
		Qty:   req.Quantity,
		Price: price,
	}, nil
}

func levelsToAPI(levels []market.Level) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Quantity: l.Qty}
	}
	return out
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultTradeList
	}
	if n > maxTradeList {
		return maxTradeList
	}
	return n
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orderbook.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, orderbook.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orderbook.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, orderbook.ErrInvalidState), errors.Is(err, orderbook.ErrDuplicateID):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, orderbook.ErrValidation):
		return "validation_error"
	case errors.Is(err, orderbook.ErrNotFound):
		return "not_found"
	case errors.Is(err, orderbook.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, orderbook.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, orderbook.ErrDuplicateID):
		return "duplicate_id"
	default:
		return "internal_error"
	}
}

func respondEngineError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), errorKind(err), err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
