package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// TradeService defines the methods that the trade handler requires from the
// service layer.
type TradeService interface {
	ListTrades(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Trade, int64, error)
	AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
	DeleteTrade(ctx context.Context, userID string, id int64) error
}

// TradeHandler serves the journal's trade list and manual trade entry.
type TradeHandler struct {
	trades   TradeService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service and logger.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades:   trades,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logHandler(logger, "trades"),
	}
}

type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListTrades returns one page of the caller's trades, newest first.
// GET /api/trades?limit=50&offset=0&since=2025-01-01&until=2025-12-31
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	opts := parseListOpts(r)
	trades, total, err := h.trades.ListTrades(r.Context(), user, opts)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list trades")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, listTradesResponse{
		Trades: trades,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// createTradeRequest is the body of the manual "Add Trade" form.
type createTradeRequest struct {
	Symbol        string   `json:"symbol" validate:"required,max=32"`
	AssetCategory string   `json:"asset_category" validate:"max=32"`
	Currency      string   `json:"currency" validate:"omitempty,len=3"`
	Side          string   `json:"side" validate:"omitempty,oneof=long short buy sell"`
	Date          string   `json:"date" validate:"required"`
	Quantity      float64  `json:"quantity" validate:"gte=0"`
	Price         float64  `json:"price" validate:"gte=0"`
	ProfitLoss    *float64 `json:"profit_loss"`
	ExitDate      string   `json:"exit_date"`
	ExitQuantity  *float64 `json:"exit_quantity" validate:"omitempty,gte=0"`
	ExitPrice     *float64 `json:"exit_price" validate:"omitempty,gte=0"`
	Commission    float64  `json:"commission" validate:"gte=0"`
	Status        string   `json:"status" validate:"omitempty,oneof=open closed"`
	Notes         string   `json:"notes" validate:"max=2000"`
}

func (req *createTradeRequest) normalise() {
	req.Symbol = strings.TrimSpace(req.Symbol)
	req.Side = strings.ToLower(strings.TrimSpace(req.Side))
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
}

// CreateTrade stores a manually entered trade.
// POST /api/trades
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.normalise()
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	date, ok := parseTime(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC 3339")
		return
	}

	trade := domain.Trade{
		UserID:        user,
		Symbol:        req.Symbol,
		AssetCategory: req.AssetCategory,
		Currency:      req.Currency,
		Side:          domain.Side(req.Side),
		Date:          date,
		RawDate:       req.Date,
		Quantity:      req.Quantity,
		Price:         req.Price,
		ProfitLoss:    req.ProfitLoss,
		ExitQuantity:  req.ExitQuantity,
		ExitPrice:     req.ExitPrice,
		Commission:    req.Commission,
		Status:        domain.TradeStatus(req.Status),
		Notes:         req.Notes,
	}
	if req.ExitDate != "" {
		exit, ok := parseTime(req.ExitDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "exit_date must be YYYY-MM-DD or RFC 3339")
			return
		}
		if exit.Before(date) {
			writeError(w, http.StatusBadRequest, "exit_date must not precede date")
			return
		}
		trade.ExitDate = &exit
	}

	created, err := h.trades.AddTrade(r.Context(), trade)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to add trade")
		return
	}

	h.logger.InfoContext(r.Context(), "trade added",
		slog.String("user_id", user),
		slog.Int64("trade_id", created.ID),
		slog.String("symbol", created.Symbol),
		slog.Time("date", created.Date),
	)
	writeJSON(w, http.StatusCreated, created)
}

// DeleteTrade removes one of the caller's trades.
// DELETE /api/trades/{id}
func (h *TradeHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "trade id must be a positive integer")
		return
	}

	if err := h.trades.DeleteTrade(r.Context(), user, id); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete trade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
