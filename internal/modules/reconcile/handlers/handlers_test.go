package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openfolio/openfolio/internal/modules/assets"
	"github.com/openfolio/openfolio/internal/modules/holdings"
	"github.com/openfolio/openfolio/internal/modules/reconcile"
	"github.com/openfolio/openfolio/internal/modules/reconcile/handlers"
	testdb "github.com/openfolio/openfolio/internal/testing"
)

type fixture struct {
	router       chi.Router
	assetIDs     []int64
	holdingsRepo *holdings.HoldingsRepository
	cleanup      func()
}

// newFixture wires the full import pipeline against a real temp database,
// the same way the server does.
func newFixture(t *testing.T, sessionTTL time.Duration) *fixture {
	t.Helper()

	db, cleanup := testdb.NewTestDB(t, "portfolio")
	ids := testdb.SeedAssets(t, db, testdb.FundNameFixtures())

	log := zerolog.Nop()
	assetRepo := assets.NewAssetRepository(db.Conn(), log)
	holdingsRepo := holdings.NewHoldingsRepository(db.Conn(), log)

	classifier := reconcile.NewMatchClassifier(
		reconcile.NewNameNormalizer(),
		reconcile.NewSimilarityScorer(),
	)
	sessions := reconcile.NewSessionStore(sessionTTL, log)
	engine := reconcile.NewReconciliationEngine(
		assetRepo, reconcile.NewSpreadsheetParser(), classifier, sessions, log)
	executor := reconcile.NewImportExecutor(sessions, assetRepo, holdingsRepo, log)

	r := chi.NewRouter()
	handlers.NewHandler(engine, executor, 10<<20, log).RegisterRoutes(r)

	return &fixture{router: r, assetIDs: ids, holdingsRepo: holdingsRepo, cleanup: cleanup}
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func sampleStatement(t *testing.T) []byte {
	return buildWorkbook(t, [][]interface{}{
		{"Fund Name", "Stock Name", "Symbol", "ISIN", "Percentage", "Value", "Quantity"},
		{"HDFC Top 100 Direct Growth", "Reliance Industries", "RELIANCE", "INE002A01018", "5", "50000", "10"},
		{"HDFC Top 100 Direct Growth", "Infosys", "INFY", "INE009A01021", "3.5", "35000", "20"},
		{"Axis Bluechip Direct Growth", "HDFC Bank", "HDFCBANK", "INE040A01034", "8", "80000", "50"},
	})
}

func uploadPreview(t *testing.T, router chi.Router, fileBytes []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "holdings.xlsx")
	require.NoError(t, err)
	_, err = part.Write(fileBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reconcile/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postConfirm(t *testing.T, router chi.Router, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/reconcile/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePreview(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := uploadPreview(t, fx.router, sampleStatement(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body["session_id"])
	assert.Equal(t, 2.0, body["funds_in_file"])
	assert.Equal(t, 5.0, body["funds_in_portfolio"])

	mappings, ok := body["mappings"].([]interface{})
	require.True(t, ok)
	require.Len(t, mappings, 2)

	first := mappings[0].(map[string]interface{})
	assert.Equal(t, "HDFC Top 100 Direct Growth", first["raw_fund_name"])
	assert.Equal(t, "auto_import", first["decision"])
	assert.NotEmpty(t, first["asset_ids"])
}

func TestHandlePreview_MalformedFile(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := uploadPreview(t, fx.router, []byte("this is not a spreadsheet"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "malformed")
}

func TestHandlePreview_MissingFileField(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reconcile/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewThenConfirm_EndToEnd(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := uploadPreview(t, fx.router, sampleStatement(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var preview map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	sessionID := preview["session_id"].(string)

	// Confirm the first fund to its auto-matched asset, skip the second.
	rec = postConfirm(t, fx.router, map[string]interface{}{
		"session_id": sessionID,
		"mappings": []map[string]interface{}{
			{"raw_fund_name": "HDFC Top 100 Direct Growth", "asset_ids": []int64{fx.assetIDs[0]}},
			{"raw_fund_name": "Axis Bluechip Direct Growth", "asset_ids": []int64{}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var confirm map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirm))
	assert.Equal(t, 2.0, confirm["success_count"])
	assert.Equal(t, 0.0, confirm["failure_count"])

	// The snapshot landed in storage.
	rows, err := fx.holdingsRepo.GetForAsset(fx.assetIDs[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Reliance Industries", rows[0].StockName)

	// The skipped fund wrote nothing.
	count, err := fx.holdingsRepo.CountForAsset(fx.assetIDs[1])
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestConfirm_SecondCallIsNotFound(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := uploadPreview(t, fx.router, sampleStatement(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var preview map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	sessionID := preview["session_id"].(string)

	payload := map[string]interface{}{
		"session_id": sessionID,
		"mappings": []map[string]interface{}{
			{"raw_fund_name": "HDFC Top 100 Direct Growth", "asset_ids": []int64{fx.assetIDs[0]}},
		},
	}

	rec = postConfirm(t, fx.router, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postConfirm(t, fx.router, payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirm_ExpiredSessionIsGone(t *testing.T) {
	fx := newFixture(t, 20*time.Millisecond)
	defer fx.cleanup()

	rec := uploadPreview(t, fx.router, sampleStatement(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var preview map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	sessionID := preview["session_id"].(string)

	time.Sleep(30 * time.Millisecond)

	rec = postConfirm(t, fx.router, map[string]interface{}{
		"session_id": sessionID,
		"mappings":   []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestConfirm_UnknownSession(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := postConfirm(t, fx.router, map[string]interface{}{
		"session_id": "no-such-session",
		"mappings":   []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirm_MissingSessionID(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	rec := postConfirm(t, fx.router, map[string]interface{}{
		"mappings": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirm_InvalidJSON(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	req := httptest.NewRequest(http.MethodPost, "/reconcile/confirm", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Re-importing the same statement twice must converge to the same snapshot.
func TestPreviewConfirmCycleIsIdempotent(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	defer fx.cleanup()

	runCycle := func() {
		rec := uploadPreview(t, fx.router, sampleStatement(t))
		require.Equal(t, http.StatusOK, rec.Code)

		var preview map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))

		rec = postConfirm(t, fx.router, map[string]interface{}{
			"session_id": preview["session_id"],
			"mappings": []map[string]interface{}{
				{"raw_fund_name": "HDFC Top 100 Direct Growth", "asset_ids": []int64{fx.assetIDs[0]}},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	runCycle()
	runCycle()

	count, err := fx.holdingsRepo.CountForAsset(fx.assetIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
