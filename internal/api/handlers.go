package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/ledger"
	"github.com/trogers1052/papertrade/internal/models"
	"github.com/trogers1052/papertrade/internal/pricing"
	"github.com/trogers1052/papertrade/internal/service"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc      *service.Service
	cookies  sessions.Store
	sessions *sessionRegistry
	logger   *slog.Logger
}

// NewHandler creates a new Handler. Sessions are dropped sessionTTL after login,
// which should match the cookie MaxAge.
func NewHandler(svc *service.Service, cookies sessions.Store, sessionTTL time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		cookies:  cookies,
		sessions: newSessionRegistry(sessionTTL, svc.Logout),
		logger:   logger,
	}
}

type notification struct {
	Kind    ledger.EventKind `json:"kind"`
	Message string           `json:"message"`
	Failed  bool             `json:"failed"`
}

type errorResponse struct {
	Error         string         `json:"error"`
	Notifications []notification `json:"notifications,omitempty"`
}

type accountResponse struct {
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type tradeRequest struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type tradeResponse struct {
	Balance       decimal.Decimal `json:"balance"`
	Notifications []notification  `json:"notifications"`
}

type holdingResponse struct {
	ledger.HoldingView
	Description string `json:"description"`
}

type portfolioResponse struct {
	Balance        decimal.Decimal   `json:"balance"`
	BalanceDisplay string            `json:"balance_display"`
	Currency       string            `json:"currency"`
	Holdings       []holdingResponse `json:"holdings"`
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respondError(w, http.StatusBadRequest, "Please fill in all fields", nil)
		return
	case errors.Is(err, service.ErrAccountExists):
		respondError(w, http.StatusConflict, "Account already exists", nil)
		return
	case err != nil:
		h.internalError(w, "register", err)
		return
	}

	if err := h.startSession(w, r, sess); err != nil {
		h.internalError(w, "register", err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccountResponse(sess.Account()))
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrAccountNotFound) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	if err != nil {
		h.internalError(w, "login", err)
		return
	}

	if err := h.startSession(w, r, sess); err != nil {
		h.internalError(w, "login", err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(sess.Account()))
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	as := sessionFrom(r)
	h.svc.Logout(as.session)
	h.endSession(w, r, as.id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// GetQuote handles GET /quotes/{ticker}
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	quote, err := h.svc.Quote(r.Context(), ticker)
	switch {
	case errors.Is(err, ledger.ErrInvalidTicker):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, pricing.ErrNoData):
		respondError(w, http.StatusNotFound, "No data found for '"+ledger.NormalizeTicker(ticker)+"'", nil)
		return
	case err != nil:
		h.internalError(w, "quote", err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// Buy handles POST /trades/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.svc.Buy)
}

// Sell handles POST /trades/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.svc.Sell)
}

type tradeFunc func(ctx context.Context, s *service.Session, ticker string, quantity int64) error

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, fn tradeFunc) {
	sess := sessionFrom(r).session

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	err := fn(r.Context(), sess, req.Ticker, req.Quantity)
	notes := toNotifications(sess.Drain())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, tradeResponse{Balance: sess.Account().Balance, Notifications: notes})
	case errors.Is(err, service.ErrSessionClosed):
		respondError(w, http.StatusUnauthorized, "session ended", nil)
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidTicker):
		respondError(w, http.StatusBadRequest, err.Error(), notes)
	case errors.Is(err, ledger.ErrPriceUnavailable):
		respondError(w, http.StatusNotFound, firstMessage(notes, err), notes)
	case ledger.IsRejection(err):
		respondError(w, http.StatusUnprocessableEntity, firstMessage(notes, err), notes)
	default:
		h.internalError(w, "trade", err)
	}
}

// GetPortfolio handles GET /portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Portfolio(sessionFrom(r).session)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "session ended", nil)
		return
	}

	resp := portfolioResponse{
		Balance:        p.Balance,
		BalanceDisplay: p.BalanceDisplay(),
		Currency:       p.Currency,
		Holdings:       []holdingResponse{},
	}
	for v := range p.Holdings() {
		resp.Holdings = append(resp.Holdings, holdingResponse{HoldingView: v, Description: p.Describe(v)})
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTrades handles GET /trades
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	records, err := h.svc.History(sessionFrom(r).session, limit)
	if errors.Is(err, service.ErrHistoryUnavailable) {
		respondError(w, http.StatusNotImplemented, err.Error(), nil)
		return
	}
	if err != nil {
		h.internalError(w, "history", err)
		return
	}
	if records == nil {
		records = []*models.TradeRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// DeleteAccount handles DELETE /account
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	as := sessionFrom(r)
	others := h.sessions.removeEmail(as.session.Email(), as.id)

	if err := h.svc.DeleteAccount(r.Context(), as.session, others...); err != nil {
		if errors.Is(err, service.ErrSessionClosed) {
			respondError(w, http.StatusUnauthorized, "session ended", nil)
			return
		}
		h.internalError(w, "delete account", err)
		return
	}

	h.endSession(w, r, as.id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", slog.String("operation", op), slog.Any("error", err))
	respondError(w, http.StatusInternalServerError, "internal error", nil)
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{Email: a.Email, Name: a.Name, Balance: a.Balance}
}

func toNotifications(events []ledger.Event) []notification {
	notes := make([]notification, 0, len(events))
	for _, e := range events {
		notes = append(notes, notification{Kind: e.Kind, Message: e.Message(), Failed: e.Failed()})
	}
	return notes
}

func firstMessage(notes []notification, err error) string {
	if len(notes) > 0 {
		return notes[0].Message
	}
	return err.Error()
}

func respondError(w http.ResponseWriter, status int, msg string, notes []notification) {
	respondJSON(w, status, errorResponse{Error: msg, Notifications: notes})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
