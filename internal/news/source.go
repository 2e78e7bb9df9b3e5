package news

import (
	"regexp"

	"aura-trader/internal/types"
)

// Source produces one labeled headline per call. Implementations may be
// synthetic or backed by a live feed; the feed only depends on this contract.
type Source interface {
	Headline(instrument string) types.NewsHeadline
}

var instrumentAffixes = regexp.MustCompile(`(?i)NSE:|BSE:|-EQ|-INDEX`)

// CleanInstrument strips exchange prefixes and segment suffixes, leaving the
// bare symbol for display and prompts ("NSE:RELIANCE-EQ" -> "RELIANCE").
func CleanInstrument(instrument string) string {
	return instrumentAffixes.ReplaceAllString(instrument, "")
}
