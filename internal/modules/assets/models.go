package assets

// TrackedAsset represents a fund asset the user already records in their portfolio.
// Only ID and DisplayName cross the reconciliation boundary; the remaining
// fields belong to the catalog itself.
type TrackedAsset struct {
	ID          int64
	DisplayName string
	AssetType   string
	CreatedAt   int64
}
