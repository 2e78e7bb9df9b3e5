package news

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"aura-trader/internal/types"
)

// headlineTaxonomy is the fixed template set per sentiment class. This is a
// placeholder generator, not a sentiment classifier; any Source honoring the
// same output contract can substitute for it.
var headlineTaxonomy = map[types.Sentiment][]string{
	types.SentimentPositive: {
		"Strong Earnings Report",
		"Analyst Upgrade: 'Strong Buy'",
		"Major Partnership Announcement",
		"Positive Economic Data",
		"High Institutional Buying Volume",
	},
	types.SentimentNegative: {
		"Regulatory Concerns",
		"Key Executive Departure",
		"Earnings Miss",
		"Broad Market Sell-Off",
		"Increased Competition",
	},
	types.SentimentNeutral: {
		"Awaiting Inflation Data",
		"Low Volume / Indecision",
		"Divided Analyst Outlook",
		"Market Holding Pattern",
		"Price Consolidation Phase",
	},
}

var sentimentClasses = []types.Sentiment{
	types.SentimentPositive,
	types.SentimentNegative,
	types.SentimentNeutral,
}

// SyntheticSource generates headlines by uniform-random choice over the
// template taxonomy.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (s *SyntheticSource) Headline(instrument string) types.NewsHeadline {
	s.mu.Lock()
	sentiment := sentimentClasses[s.rng.Intn(len(sentimentClasses))]
	templates := headlineTaxonomy[sentiment]
	text := templates[s.rng.Intn(len(templates))]
	s.mu.Unlock()

	return types.NewsHeadline{
		Timestamp: s.now().UnixMilli(),
		Sentiment: sentiment,
		Text:      strings.ReplaceAll(text, "{INSTRUMENT}", CleanInstrument(instrument)),
	}
}
