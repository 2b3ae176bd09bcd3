// Package handlers provides HTTP handlers for the tracked-asset catalog.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/openfolio/openfolio/internal/modules/assets"
	"github.com/openfolio/openfolio/internal/modules/holdings"
	"github.com/rs/zerolog"
)

// Handler handles asset catalog HTTP requests
type Handler struct {
	assetRepo    *assets.AssetRepository
	holdingsRepo *holdings.HoldingsRepository
	log          zerolog.Logger
}

// NewHandler creates a new assets handler
func NewHandler(
	assetRepo *assets.AssetRepository,
	holdingsRepo *holdings.HoldingsRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		assetRepo:    assetRepo,
		holdingsRepo: holdingsRepo,
		log:          log.With().Str("handler", "assets").Logger(),
	}
}

// HandleListAssets returns the tracked fund assets, used by the review UI's
// asset picker
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	funds, err := h.assetRepo.GetAllFunds()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]map[string]interface{}, 0, len(funds))
	for _, fund := range funds {
		result = append(result, map[string]interface{}{
			"id":           fund.ID,
			"display_name": fund.DisplayName,
			"asset_type":   fund.AssetType,
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetHoldings returns the current holdings snapshot for one asset
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	assetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := h.assetRepo.GetByID(assetID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if asset == nil {
		h.writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	rows, err := h.holdingsRepo.GetForAsset(assetID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		result = append(result, map[string]interface{}{
			"stock_name":   row.StockName,
			"stock_symbol": row.StockSymbol,
			"isin":         row.ISIN,
			"percentage":   row.Percentage,
			"value":        row.Value,
			"quantity":     row.Quantity,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset_id":     asset.ID,
		"display_name": asset.DisplayName,
		"holdings":     result,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
