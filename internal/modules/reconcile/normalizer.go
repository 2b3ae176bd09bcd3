// Package reconcile implements the consolidated holdings reconciliation and
// import pipeline: matching uploaded fund names against tracked assets,
// the two-phase preview/confirm protocol, and the partial-failure-tolerant
// write path.
package reconcile

import "strings"

// boilerplateTokens are scheme-suffix tokens that carry no weight when
// comparing fund names across brokers and custodians. They are diverted to a
// side channel rather than deleted silently, so callers can still surface
// what was stripped.
var boilerplateTokens = map[string]bool{
	"direct":       true,
	"regular":      true,
	"growth":       true,
	"plan":         true,
	"fund":         true,
	"scheme":       true,
	"option":       true,
	"dividend":     true,
	"idcw":         true,
	"payout":       true,
	"reinvest":     true,
	"reinvestment": true,
}

// separatorPunctuation is punctuation that acts as a word separator in fund
// names. Characters like '&' are kept since they carry semantic weight
// ("L&T", "M&M").
const separatorPunctuation = ".,-_/()[]:;'\""

// NameNormalizer canonicalizes raw fund-name strings for comparison.
// Normalization is pure and deterministic: it runs for every
// (block, asset) pair, so it must not touch I/O.
type NameNormalizer struct{}

// NewNameNormalizer creates a new name normalizer
func NewNameNormalizer() *NameNormalizer {
	return &NameNormalizer{}
}

// Normalize canonicalizes a raw fund name and returns the canonical string
// plus the boilerplate tokens that were stripped from it.
//
// Rules, in order: case-fold, trim, collapse whitespace runs, replace
// separator punctuation with spaces, divert boilerplate tokens to the side
// channel. If stripping boilerplate would leave nothing (a name made up
// entirely of boilerplate, e.g. "Growth Plan"), the unstripped canonical
// form is kept so the name still participates in matching.
//
// Normalize is idempotent: Normalize(canonical) returns canonical again.
func (n *NameNormalizer) Normalize(raw string) (string, []string) {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	replaced := strings.Map(func(r rune) rune {
		if strings.ContainsRune(separatorPunctuation, r) {
			return ' '
		}
		return r
	}, lowered)

	tokens := strings.Fields(replaced)

	var kept []string
	var stripped []string
	for _, tok := range tokens {
		if boilerplateTokens[tok] {
			stripped = append(stripped, tok)
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) == 0 {
		return strings.Join(tokens, " "), stripped
	}

	return strings.Join(kept, " "), stripped
}
