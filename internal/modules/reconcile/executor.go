package reconcile

import (
	"fmt"

	"github.com/openfolio/openfolio/internal/modules/holdings"
	"github.com/rs/zerolog"
)

// HoldingsWriter is the storage collaborator that owns the per-asset
// replace-snapshot semantics
type HoldingsWriter interface {
	ReplaceForAsset(assetID int64, rows []holdings.Holding) error
}

// ImportExecutor applies confirmed mappings to the holdings store, one fund
// at a time, with independent failure isolation: a storage error on one
// mapping is recorded in that mapping's outcome and never stops the rest of
// the batch.
type ImportExecutor struct {
	sessions *SessionStore
	catalog  AssetCatalog
	store    HoldingsWriter
	log      zerolog.Logger
}

// NewImportExecutor creates a new import executor
func NewImportExecutor(
	sessions *SessionStore,
	catalog AssetCatalog,
	store HoldingsWriter,
	log zerolog.Logger,
) *ImportExecutor {
	return &ImportExecutor{
		sessions: sessions,
		catalog:  catalog,
		store:    store,
		log:      log.With().Str("service", "import_executor").Logger(),
	}
}

// Confirm replays a previewed session with the user's edited mappings.
//
// The session is taken atomically up front, so a duplicate confirm gets
// ErrSessionNotFound and cannot apply the same import twice. Each mapping
// is then processed independently and yields exactly one outcome:
//   - empty AssetIDs: an explicit skip, reported as success with zero
//     holdings written
//   - asset ids are re-validated against the catalog at confirm time,
//     not trusted from the preview; a vanished asset fails that mapping
//   - every confirmed asset receives the full holdings block of the
//     matching fund (one scheme credited to all its folio records); each
//     asset's snapshot replacement is its own atomic unit
func (x *ImportExecutor) Confirm(sessionID string, edited []ConfirmedMapping) (*ImportReport, error) {
	session, err := x.sessions.Take(sessionID)
	if err != nil {
		return nil, err
	}

	blocksByName := make(map[string]*FundBlock, len(session.Blocks))
	for i := range session.Blocks {
		blocksByName[session.Blocks[i].RawFundName] = &session.Blocks[i]
	}

	report := &ImportReport{}
	for _, mapping := range edited {
		outcome := x.applyMapping(mapping, blocksByName)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
	}

	x.log.Info().
		Str("session_id", sessionID).
		Int("successes", report.SuccessCount).
		Int("failures", report.FailureCount).
		Msg("Import confirmed")

	return report, nil
}

// applyMapping imports one confirmed mapping and always produces an outcome
func (x *ImportExecutor) applyMapping(mapping ConfirmedMapping, blocksByName map[string]*FundBlock) ImportOutcome {
	outcome := ImportOutcome{RawFundName: mapping.RawFundName}

	if len(mapping.AssetIDs) == 0 {
		outcome.Success = true
		outcome.Message = "skipped: no asset selected"
		return outcome
	}

	block, ok := blocksByName[mapping.RawFundName]
	if !ok {
		outcome.Message = fmt.Sprintf("fund %q not present in uploaded file", mapping.RawFundName)
		return outcome
	}

	// Re-validate before any write: the catalog may have changed between
	// preview and confirm.
	for _, assetID := range mapping.AssetIDs {
		exists, err := x.catalog.Exists(assetID)
		if err != nil {
			outcome.Message = fmt.Sprintf("failed to validate asset %d: %v", assetID, err)
			return outcome
		}
		if !exists {
			outcome.Message = fmt.Sprintf("%v: asset %d", ErrAssetNotFound, assetID)
			return outcome
		}
	}

	rows := toHoldingRows(block.Rows)
	written := 0
	for _, assetID := range mapping.AssetIDs {
		snapshot := make([]holdings.Holding, len(rows))
		copy(snapshot, rows)

		if err := x.store.ReplaceForAsset(assetID, snapshot); err != nil {
			x.log.Error().
				Err(err).
				Int64("asset_id", assetID).
				Str("fund", mapping.RawFundName).
				Msg("Holdings write failed")
			outcome.HoldingsWritten = written
			outcome.Message = fmt.Sprintf("%v: asset %d: %v", ErrStorageWriteFailed, assetID, err)
			return outcome
		}
		written += len(rows)
	}

	outcome.Success = true
	outcome.HoldingsWritten = written
	outcome.Message = fmt.Sprintf("imported %d holdings to %d asset(s)", written, len(mapping.AssetIDs))
	return outcome
}

// toHoldingRows converts parsed spreadsheet rows to storage rows
func toHoldingRows(rows []HoldingRow) []holdings.Holding {
	result := make([]holdings.Holding, 0, len(rows))
	for _, row := range rows {
		result = append(result, holdings.Holding{
			StockName:   row.StockName,
			StockSymbol: row.StockSymbol,
			ISIN:        row.ISIN,
			Percentage:  row.Percentage,
			Value:       row.Value,
			Quantity:    row.Quantity,
		})
	}
	return result
}
