package reconcile

import "sort"

// Classification thresholds. Fund-name spelling varies across brokers and
// custodians: a rigid exact match would silently drop most real uploads,
// while auto-importing below the confident threshold risks crediting
// holdings to the wrong asset and corrupting reported net worth.
const (
	// candidateFloor - candidates scoring below this are not worth showing
	candidateFloor = 0.3
	// autoImportThreshold - top score at or above this imports without review
	autoImportThreshold = 0.8
	// reviewThreshold - top score at or above this (but below auto-import)
	// is surfaced for the user to confirm
	reviewThreshold = 0.6
	// tieEpsilon - assets within this of the top score are treated as the
	// same match (identical scheme tracked under several folio records)
	tieEpsilon = 0.02
)

// catalogEntry is a tracked asset with its name pre-normalized, so the
// normalizer runs once per asset rather than once per (block, asset) pair.
type catalogEntry struct {
	ID            int64
	DisplayName   string
	CanonicalName string
}

// MatchClassifier scores one uploaded fund block against the tracked-asset
// catalog and turns the scores into a decision.
type MatchClassifier struct {
	normalizer *NameNormalizer
	scorer     *SimilarityScorer
}

// NewMatchClassifier creates a new match classifier
func NewMatchClassifier(normalizer *NameNormalizer, scorer *SimilarityScorer) *MatchClassifier {
	return &MatchClassifier{
		normalizer: normalizer,
		scorer:     scorer,
	}
}

// prepareCatalog normalizes the asset names once for reuse across blocks
func (c *MatchClassifier) prepareCatalog(assetIDs []int64, names []string) []catalogEntry {
	entries := make([]catalogEntry, 0, len(assetIDs))
	for i, id := range assetIDs {
		canonical, _ := c.normalizer.Normalize(names[i])
		entries = append(entries, catalogEntry{
			ID:            id,
			DisplayName:   names[i],
			CanonicalName: canonical,
		})
	}
	return entries
}

// Classify builds the FundMapping for one uploaded fund block.
//
// Every catalog entry is scored; candidates above the floor are kept sorted
// descending. The top score decides:
//   - >= 0.8: AutoImport, with every asset within tieEpsilon of the top
//     score included by default (the same scheme held as multiple folios
//     is credited to all of them)
//   - >= 0.6: NeedsReview, defaulting to the single top candidate but
//     exposing the full candidate list for the user to pick from
//   - below 0.6, or no candidates at all: Skip
func (c *MatchClassifier) Classify(rawFundName string, catalog []catalogEntry) FundMapping {
	canonical, _ := c.normalizer.Normalize(rawFundName)

	var candidates []MatchCandidate
	for _, entry := range catalog {
		score := c.scorer.Score(canonical, entry.CanonicalName)
		if score < candidateFloor {
			continue
		}
		candidates = append(candidates, MatchCandidate{
			AssetID:   entry.ID,
			AssetName: entry.DisplayName,
			Score:     score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	mapping := FundMapping{
		RawFundName: rawFundName,
		Candidates:  candidates,
		Decision:    DecisionSkip,
	}

	if len(candidates) == 0 {
		return mapping
	}

	top := candidates[0].Score
	switch {
	case top >= autoImportThreshold:
		mapping.Decision = DecisionAutoImport
		for _, cand := range candidates {
			if top-cand.Score <= tieEpsilon {
				mapping.AssetIDs = append(mapping.AssetIDs, cand.AssetID)
			}
		}
	case top >= reviewThreshold:
		mapping.Decision = DecisionNeedsReview
		mapping.AssetIDs = []int64{candidates[0].AssetID}
	}

	return mapping
}
