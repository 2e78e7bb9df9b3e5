package news

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"aura-trader/internal/logger"
	"aura-trader/internal/types"
)

const (
	scraperTimeout   = 15 * time.Second
	scraperStaleness = 10 * time.Minute
	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var positiveWords = []string{
	"surge", "rally", "gain", "jump", "record", "upgrade", "beat", "profit",
	"growth", "strong", "buy", "soar", "high", "partnership", "approval",
}

var negativeWords = []string{
	"fall", "drop", "loss", "miss", "downgrade", "probe", "fraud", "weak",
	"sell-off", "decline", "cut", "slump", "low", "lawsuit", "penalty",
}

// ScraperSource fetches real headlines for an instrument from MoneyControl's
// tag pages and labels them with a keyword-based sentiment. On scrape failure
// or an exhausted queue it falls back to the synthetic generator, so the feed
// contract is always honored.
type ScraperSource struct {
	fallback *SyntheticSource

	mu        sync.Mutex
	queue     []types.NewsHeadline
	fetchedAt time.Time
	lastSym   string
}

func NewScraperSource() *ScraperSource {
	return &ScraperSource{fallback: NewSyntheticSource()}
}

func (s *ScraperSource) Headline(instrument string) types.NewsHeadline {
	symbol := CleanInstrument(instrument)

	s.mu.Lock()
	stale := s.lastSym != symbol || time.Since(s.fetchedAt) > scraperStaleness
	if stale || len(s.queue) == 0 {
		s.mu.Unlock()
		fetched := s.fetch(symbol)
		s.mu.Lock()
		if len(fetched) > 0 {
			s.queue = fetched
			s.fetchedAt = time.Now()
			s.lastSym = symbol
		}
	}

	if len(s.queue) == 0 {
		s.mu.Unlock()
		return s.fallback.Headline(instrument)
	}

	h := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	h.Timestamp = time.Now().UnixMilli()
	return h
}

func (s *ScraperSource) fetch(symbol string) []types.NewsHeadline {
	ctx := context.Background()

	c := colly.NewCollector(
		colly.AllowedDomains("www.moneycontrol.com"),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(scraperTimeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", scraperUserAgent)
	})

	var headlines []types.NewsHeadline
	c.OnHTML("li.clearfix", func(e *colly.HTMLElement) {
		if len(headlines) >= 10 {
			return
		}
		title := strings.TrimSpace(e.ChildText("h2 a, h3 a"))
		if title == "" {
			return
		}
		summary := firstParagraph(e.DOM)
		headlines = append(headlines, types.NewsHeadline{
			Sentiment: classify(title + " " + summary),
			Text:      title,
		})
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "Headline scrape failed", "symbol", symbol, "error", err)
	})

	url := "https://www.moneycontrol.com/news/tags/" + strings.ToLower(symbol) + ".html"
	if err := c.Visit(url); err != nil {
		logger.Warn(ctx, "Headline scrape visit failed", "symbol", symbol, "url", url, "error", err)
		return nil
	}
	c.Wait()

	logger.Debug(ctx, "Headlines scraped", "symbol", symbol, "count", len(headlines))
	return headlines
}

func firstParagraph(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Find("p").First().Text())
}

// classify scores a headline against the keyword lists. Ties and empty
// matches are Neutral.
func classify(text string) types.Sentiment {
	lower := strings.ToLower(text)

	var score int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return types.SentimentPositive
	case score < 0:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}
