// Package holdings provides storage for per-asset holdings snapshots.
package holdings

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/openfolio/openfolio/internal/database"
	"github.com/rs/zerolog"
)

// HoldingsRepository handles holdings database operations.
//
// Writes to the same asset are serialized through a per-asset mutex so that
// two imports touching one asset cannot interleave their delete+insert
// transactions. Writes to different assets are independent.
type HoldingsRepository struct {
	db  *sql.DB
	log zerolog.Logger

	mu         sync.Mutex
	assetLocks map[int64]*sync.Mutex
}

// NewHoldingsRepository creates a new holdings repository
func NewHoldingsRepository(db *sql.DB, log zerolog.Logger) *HoldingsRepository {
	return &HoldingsRepository{
		db:         db,
		log:        log.With().Str("repo", "holdings").Logger(),
		assetLocks: make(map[int64]*sync.Mutex),
	}
}

// lockForAsset returns the mutex guarding one asset's snapshot
func (r *HoldingsRepository) lockForAsset(assetID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.assetLocks[assetID]
	if !ok {
		lock = &sync.Mutex{}
		r.assetLocks[assetID] = lock
	}
	return lock
}

// ReplaceForAsset replaces an asset's entire holdings snapshot with rows.
// Delete and insert run inside a single transaction, so the snapshot is
// replaced atomically: readers see either the old rows or the new rows,
// never a mix. Calling this twice with the same rows is idempotent.
func (r *HoldingsRepository) ReplaceForAsset(assetID int64, rows []Holding) error {
	lock := r.lockForAsset(assetID)
	lock.Lock()
	defer lock.Unlock()

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM holdings WHERE asset_id = ?", assetID); err != nil {
			return fmt.Errorf("failed to clear holdings for asset %d: %w", assetID, err)
		}

		stmt, err := tx.Prepare(`INSERT INTO holdings
			(asset_id, stock_name, stock_symbol, isin, percentage, value, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare holdings insert: %w", err)
		}
		defer stmt.Close()

		for _, h := range rows {
			_, err := stmt.Exec(assetID, h.StockName, h.StockSymbol, h.ISIN,
				h.Percentage, h.Value, h.Quantity)
			if err != nil {
				return fmt.Errorf("failed to insert holding %q for asset %d: %w",
					h.StockName, assetID, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().
		Int64("asset_id", assetID).
		Int("rows", len(rows)).
		Msg("Holdings snapshot replaced")

	return nil
}

// GetForAsset returns the current holdings snapshot for one asset
func (r *HoldingsRepository) GetForAsset(assetID int64) ([]Holding, error) {
	query := `SELECT id, asset_id, stock_name, stock_symbol, isin,
		percentage, value, quantity, imported_at
		FROM holdings WHERE asset_id = ? ORDER BY id`

	rows, err := r.db.Query(query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for asset %d: %w", assetID, err)
	}
	defer rows.Close()

	var result []Holding
	for rows.Next() {
		var h Holding
		var symbol, isin sql.NullString
		err := rows.Scan(&h.ID, &h.AssetID, &h.StockName, &symbol, &isin,
			&h.Percentage, &h.Value, &h.Quantity, &h.ImportedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.StockSymbol = symbol.String
		h.ISIN = isin.String
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return result, nil
}

// CountForAsset returns the number of holdings rows for one asset
func (r *HoldingsRepository) CountForAsset(assetID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM holdings WHERE asset_id = ?", assetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count holdings for asset %d: %w", assetID, err)
	}
	return count, nil
}
