package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// SwapAPI defines the unary operations the swap handler requires from the
// service layer.
type SwapAPI interface {
	Init(tokens []string) []domain.TradingPair
	Swap(ctx context.Context, pair domain.TradingPair) error
}

// SwapHandler serves the snapshot and swap submission endpoints.
type SwapHandler struct {
	svc    SwapAPI
	logger *slog.Logger
}

// NewSwapHandler creates a SwapHandler with the given service and logger.
func NewSwapHandler(svc SwapAPI, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		svc:    svc,
		logger: logger,
	}
}

// initResponse wraps the snapshot response.
type initResponse struct {
	Pairs []domain.TradingPair `json:"pairs"`
}

// Init returns a point-in-time snapshot of the liquidity cache, filtered
// to the requested pair keys when given.
// GET /api/pairs?tokens=WETH:USDC,DAI:USDT
func (h *SwapHandler) Init(w http.ResponseWriter, r *http.Request) {
	pairs := h.svc.Init(tokenFilter(r))
	if pairs == nil {
		pairs = []domain.TradingPair{}
	}
	writeJSON(w, http.StatusOK, initResponse{Pairs: pairs})
}

// swapRequest is the submission body for a swap.
type swapRequest struct {
	Pair domain.TradingPair `json:"pair"`
}

// Swap validates and accepts a swap submission.
// POST /api/swap
func (h *SwapHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Swap(r.Context(), req.Pair); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: swap failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "swap submission failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
