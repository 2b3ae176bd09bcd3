package testing

import (
	"testing"

	"github.com/openfolio/openfolio/internal/database"
	"github.com/openfolio/openfolio/internal/modules/assets"
	"github.com/rs/zerolog"
)

// FundNameFixtures are tracked-asset names covering the naming variants the
// reconciliation pipeline has to cope with: suffix boilerplate, folio
// duplicates and abbreviations.
func FundNameFixtures() []string {
	return []string{
		"HDFC Top 100 Fund - Direct Plan",
		"Axis Bluechip Fund Direct Growth",
		"Parag Parikh Flexi Cap Fund - Direct - Growth",
		"SBI Small Cap Fund Regular Growth",
		"UTI Nifty 50 Index Fund - Direct",
	}
}

// SeedAssets inserts the given fund names into the catalog and returns their
// ids in insertion order.
func SeedAssets(t *testing.T, db *database.DB, names []string) []int64 {
	t.Helper()

	repo := assets.NewAssetRepository(db.Conn(), zerolog.Nop())
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := repo.Create(name, "mutual_fund")
		if err != nil {
			t.Fatalf("Failed to seed asset %q: %v", name, err)
		}
		ids = append(ids, id)
	}
	return ids
}
