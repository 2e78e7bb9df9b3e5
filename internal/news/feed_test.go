package news

import (
	"fmt"
	"testing"
	"time"

	"aura-trader/internal/types"
)

// seqSource emits numbered headlines so ordering is observable.
type seqSource struct {
	n int
}

func (s *seqSource) Headline(instrument string) types.NewsHeadline {
	s.n++
	return types.NewsHeadline{
		Timestamp: time.Now().UnixMilli(),
		Sentiment: types.SentimentNeutral,
		Text:      fmt.Sprintf("headline-%d", s.n),
	}
}

func TestFeedEmitsImmediatelyOnStart(t *testing.T) {
	feed := NewFeed(&seqSource{}, "NSE:NIFTY50-INDEX", WithInterval(time.Hour))
	feed.Start()
	defer feed.Stop()

	if feed.Len() != 1 {
		t.Fatalf("expected one initial headline, got %d", feed.Len())
	}
}

func TestFeedNewestFirstAndCap(t *testing.T) {
	feed := NewFeed(&seqSource{}, "NSE:RELIANCE-EQ", WithInterval(time.Hour), WithMaxHeadlines(5))

	// Drive production directly rather than waiting on the ticker.
	for i := 0; i < 8; i++ {
		feed.produce()
	}

	headlines := feed.Headlines()
	if len(headlines) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(headlines))
	}
	if headlines[0].Text != "headline-8" {
		t.Errorf("expected most recent headline first, got %s", headlines[0].Text)
	}
	if headlines[4].Text != "headline-4" {
		t.Errorf("expected oldest surviving headline last, got %s", headlines[4].Text)
	}
}

func TestFeedStopKeepsHeadlines(t *testing.T) {
	feed := NewFeed(&seqSource{}, "NSE:TCS-EQ", WithInterval(10*time.Millisecond))
	feed.Start()
	time.Sleep(35 * time.Millisecond)
	feed.Stop()

	got := feed.Len()
	if got < 2 {
		t.Fatalf("expected periodic production, got %d headlines", got)
	}

	time.Sleep(30 * time.Millisecond)
	if feed.Len() != got {
		t.Errorf("production continued after stop: %d -> %d", got, feed.Len())
	}
	if feed.Running() {
		t.Error("feed still reports running after stop")
	}
}

func TestFeedHandlerInvoked(t *testing.T) {
	var seen []string
	feed := NewFeed(&seqSource{}, "NSE:SBIN-EQ",
		WithInterval(time.Hour),
		WithHandler(func(h types.NewsHeadline) { seen = append(seen, h.Text) }),
	)
	feed.Start()
	defer feed.Stop()

	if len(seen) != 1 || seen[0] != "headline-1" {
		t.Fatalf("handler not invoked for initial headline: %v", seen)
	}
}

func TestFeedReset(t *testing.T) {
	feed := NewFeed(&seqSource{}, "NSE:INFY-EQ", WithInterval(time.Hour))
	feed.produce()
	feed.produce()

	feed.Reset()

	if feed.Len() != 0 {
		t.Fatalf("expected empty feed after reset, got %d", feed.Len())
	}
}

func TestSyntheticSourceTaxonomy(t *testing.T) {
	src := NewSyntheticSource()

	for i := 0; i < 50; i++ {
		h := src.Headline("NSE:NIFTY50-INDEX")
		templates, ok := headlineTaxonomy[h.Sentiment]
		if !ok {
			t.Fatalf("unknown sentiment %q", h.Sentiment)
		}
		found := false
		for _, tmpl := range templates {
			if h.Text == tmpl {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("headline %q not in taxonomy for %s", h.Text, h.Sentiment)
		}
	}
}

func TestCleanInstrument(t *testing.T) {
	cases := map[string]string{
		"NSE:NIFTY50-INDEX": "NIFTY50",
		"NSE:RELIANCE-EQ":   "RELIANCE",
		"BSE:TCS-EQ":        "TCS",
		"SBIN":              "SBIN",
	}
	for in, want := range cases {
		if got := CleanInstrument(in); got != want {
			t.Errorf("CleanInstrument(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyKeywords(t *testing.T) {
	if got := classify("Shares surge to record high on strong results"); got != types.SentimentPositive {
		t.Errorf("expected Positive, got %s", got)
	}
	if got := classify("Regulator probe triggers sharp fall"); got != types.SentimentNegative {
		t.Errorf("expected Negative, got %s", got)
	}
	if got := classify("Board meeting scheduled next week"); got != types.SentimentNeutral {
		t.Errorf("expected Neutral, got %s", got)
	}
}
