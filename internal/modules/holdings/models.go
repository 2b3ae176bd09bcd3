package holdings

// Holding is one underlying-equity row of a fund's holdings snapshot.
// Rows are only ever written as a full per-asset snapshot; there is no
// row-level update path.
type Holding struct {
	ID          int64
	AssetID     int64
	StockName   string
	StockSymbol string
	ISIN        string
	Percentage  float64
	Value       float64
	Quantity    float64
	ImportedAt  int64
}
