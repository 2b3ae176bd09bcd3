package reconcile

import "time"

// Decision is the classification outcome for one uploaded fund block
type Decision string

const (
	// DecisionAutoImport - top match is confident enough to import without review
	DecisionAutoImport Decision = "auto_import"
	// DecisionNeedsReview - plausible matches exist but the user must confirm
	DecisionNeedsReview Decision = "needs_review"
	// DecisionSkip - no tracked asset resembles this fund
	DecisionSkip Decision = "skip"
)

// HoldingRow is one underlying-equity row extracted from the uploaded file
type HoldingRow struct {
	StockName   string
	StockSymbol string
	ISIN        string
	Percentage  float64
	Value       float64
	Quantity    float64
}

// FundBlock is one fund's worth of extracted rows. Immutable once parsed.
type FundBlock struct {
	RawFundName string
	Rows        []HoldingRow
}

// MatchCandidate relates an uploaded fund block to one tracked asset
type MatchCandidate struct {
	AssetID   int64
	AssetName string
	Score     float64
}

// FundMapping is one row of the import preview: the proposed correspondence
// between an uploaded fund block and zero or more tracked assets.
// Candidates are ordered best first. AssetIDs holds the default (and later
// user-confirmed) targets; the same scheme tracked under several folio
// records yields several ids.
type FundMapping struct {
	RawFundName string
	Candidates  []MatchCandidate
	Decision    Decision
	AssetIDs    []int64
}

// ImportSession is a parsed-but-unconfirmed upload. It lives in the session
// store between the preview and confirm calls, is consumed exactly once, and
// is never persisted beyond process memory.
type ImportSession struct {
	ID        string
	CreatedAt time.Time
	Blocks    []FundBlock
	Mappings  []FundMapping
}

// PreviewResult is what the preview operation returns to the caller
type PreviewResult struct {
	SessionID        string
	FundsInFile      int
	FundsInPortfolio int
	Mappings         []FundMapping
}

// ConfirmedMapping is the user's edited version of one FundMapping.
// An empty AssetIDs list means "skip this fund".
type ConfirmedMapping struct {
	RawFundName string
	AssetIDs    []int64
}

// ImportOutcome records the result of importing one confirmed mapping
type ImportOutcome struct {
	RawFundName     string
	Success         bool
	HoldingsWritten int
	Message         string
}

// ImportReport aggregates the per-mapping outcomes of one confirm call.
// It is returned to the caller and not persisted.
type ImportReport struct {
	Outcomes     []ImportOutcome
	SuccessCount int
	FailureCount int
}
