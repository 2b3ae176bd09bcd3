// Package assets provides the tracked-asset catalog for the portfolio.
package assets

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// AssetRepository handles tracked-asset database operations
type AssetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log.With().Str("repo", "assets").Logger(),
	}
}

// GetAllFunds returns all mutual fund assets in the catalog, ordered by name
func (r *AssetRepository) GetAllFunds() ([]TrackedAsset, error) {
	query := `SELECT id, display_name, asset_type, created_at
		FROM assets
		WHERE asset_type = 'mutual_fund'
		ORDER BY display_name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var result []TrackedAsset
	for rows.Next() {
		var a TrackedAsset
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.AssetType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return result, nil
}

// GetByID returns a single asset, or nil if it does not exist
func (r *AssetRepository) GetByID(id int64) (*TrackedAsset, error) {
	query := `SELECT id, display_name, asset_type, created_at FROM assets WHERE id = ?`

	var a TrackedAsset
	err := r.db.QueryRow(query, id).Scan(&a.ID, &a.DisplayName, &a.AssetType, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset %d: %w", id, err)
	}

	return &a, nil
}

// Exists reports whether an asset id is present in the catalog
func (r *AssetRepository) Exists(id int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM assets WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check asset %d: %w", id, err)
	}
	return count > 0, nil
}

// Create inserts a new asset and returns its id.
// The CRUD pages that manage the catalog live elsewhere; this exists for
// catalog seeding and tests.
func (r *AssetRepository) Create(displayName, assetType string) (int64, error) {
	if assetType == "" {
		assetType = "mutual_fund"
	}

	res, err := r.db.Exec(
		"INSERT INTO assets (display_name, asset_type) VALUES (?, ?)",
		displayName, assetType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert asset %q: %w", displayName, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted asset id: %w", err)
	}

	r.log.Debug().Int64("id", id).Str("name", displayName).Msg("Asset created")
	return id, nil
}
