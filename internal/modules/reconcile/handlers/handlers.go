// Package handlers provides HTTP handlers for the holdings import pipeline.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/openfolio/openfolio/internal/modules/reconcile"
	"github.com/rs/zerolog"
)

// Handler handles holdings import HTTP requests
type Handler struct {
	engine         *reconcile.ReconciliationEngine
	executor       *reconcile.ImportExecutor
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewHandler creates a new reconcile handler
func NewHandler(
	engine *reconcile.ReconciliationEngine,
	executor *reconcile.ImportExecutor,
	maxUploadBytes int64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:         engine,
		executor:       executor,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("handler", "reconcile").Logger(),
	}
}

// HandlePreview accepts the uploaded spreadsheet and returns the mapping
// preview with its session id
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to parse upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing 'file' field: "+err.Error())
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to read upload: "+err.Error())
		return
	}

	h.log.Info().
		Str("filename", header.Filename).
		Int("bytes", len(fileBytes)).
		Msg("Holdings file uploaded")

	result, err := h.engine.Preview(fileBytes)
	if err != nil {
		if errors.Is(err, reconcile.ErrMalformedFile) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mappings := make([]map[string]interface{}, 0, len(result.Mappings))
	for _, m := range result.Mappings {
		mappings = append(mappings, mappingToJSON(m))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":         result.SessionID,
		"funds_in_file":      result.FundsInFile,
		"funds_in_portfolio": result.FundsInPortfolio,
		"mappings":           mappings,
	})
}

// confirmRequest is the JSON body of the confirm call
type confirmRequest struct {
	SessionID string `json:"session_id"`
	Mappings  []struct {
		RawFundName string  `json:"raw_fund_name"`
		AssetIDs    []int64 `json:"asset_ids"`
	} `json:"mappings"`
}

// HandleConfirm applies the user-confirmed mappings and returns the
// per-fund import report
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	edited := make([]reconcile.ConfirmedMapping, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		edited = append(edited, reconcile.ConfirmedMapping{
			RawFundName: m.RawFundName,
			AssetIDs:    m.AssetIDs,
		})
	}

	report, err := h.executor.Confirm(req.SessionID, edited)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrSessionExpired):
			h.writeError(w, http.StatusGone, err.Error())
		case errors.Is(err, reconcile.ErrSessionNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	outcomes := make([]map[string]interface{}, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		outcomes = append(outcomes, map[string]interface{}{
			"raw_fund_name":    o.RawFundName,
			"success":          o.Success,
			"holdings_written": o.HoldingsWritten,
			"message":          o.Message,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":        outcomes,
		"success_count": report.SuccessCount,
		"failure_count": report.FailureCount,
	})
}

// mappingToJSON converts a FundMapping to its response shape
func mappingToJSON(m reconcile.FundMapping) map[string]interface{} {
	candidates := make([]map[string]interface{}, 0, len(m.Candidates))
	for _, c := range m.Candidates {
		candidates = append(candidates, map[string]interface{}{
			"asset_id":   c.AssetID,
			"asset_name": c.AssetName,
			"score":      c.Score,
		})
	}

	assetIDs := m.AssetIDs
	if assetIDs == nil {
		assetIDs = []int64{}
	}

	return map[string]interface{}{
		"raw_fund_name": m.RawFundName,
		"decision":      string(m.Decision),
		"asset_ids":     assetIDs,
		"candidates":    candidates,
	}
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
