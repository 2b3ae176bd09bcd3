package reconcile

import (
	"fmt"

	"github.com/openfolio/openfolio/internal/modules/assets"
	"github.com/rs/zerolog"
)

// AssetCatalog is the read-only view of the tracked-asset catalog the
// pipeline matches against
type AssetCatalog interface {
	GetAllFunds() ([]assets.TrackedAsset, error)
	Exists(id int64) (bool, error)
}

// ReconciliationEngine orchestrates parsing, matching and classification to
// produce a mapping preview.
type ReconciliationEngine struct {
	catalog    AssetCatalog
	parser     *SpreadsheetParser
	classifier *MatchClassifier
	sessions   *SessionStore
	log        zerolog.Logger
}

// NewReconciliationEngine creates a new reconciliation engine
func NewReconciliationEngine(
	catalog AssetCatalog,
	parser *SpreadsheetParser,
	classifier *MatchClassifier,
	sessions *SessionStore,
	log zerolog.Logger,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		catalog:    catalog,
		parser:     parser,
		classifier: classifier,
		sessions:   sessions,
		log:        log.With().Str("service", "reconciliation").Logger(),
	}
}

// Preview parses the uploaded spreadsheet, classifies every fund block
// against the catalog and stores the resulting session.
//
// Parsing and scoring are all-or-nothing: a malformed file returns
// ErrMalformedFile and no session is created, so a failed preview leaves
// nothing behind to clean up.
func (e *ReconciliationEngine) Preview(fileBytes []byte) (*PreviewResult, error) {
	blocks, err := e.parser.Parse(fileBytes)
	if err != nil {
		return nil, err
	}

	funds, err := e.catalog.GetAllFunds()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked assets: %w", err)
	}

	assetIDs := make([]int64, len(funds))
	names := make([]string, len(funds))
	for i, fund := range funds {
		assetIDs[i] = fund.ID
		names[i] = fund.DisplayName
	}
	catalog := e.classifier.prepareCatalog(assetIDs, names)

	mappings := make([]FundMapping, 0, len(blocks))
	for _, block := range blocks {
		mappings = append(mappings, e.classifier.Classify(block.RawFundName, catalog))
	}

	sessionID := e.sessions.Put(ImportSession{
		Blocks:   blocks,
		Mappings: mappings,
	})

	e.log.Info().
		Str("session_id", sessionID).
		Int("funds_in_file", len(blocks)).
		Int("funds_in_portfolio", len(funds)).
		Msg("Import preview created")

	return &PreviewResult{
		SessionID:        sessionID,
		FundsInFile:      len(blocks),
		FundsInPortfolio: len(funds),
		Mappings:         mappings,
	}, nil
}
