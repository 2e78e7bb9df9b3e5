package market

import (
	"testing"

	"aura-trader/internal/types"
)

func TestSnapshotStoreWholesaleReplace(t *testing.T) {
	store := NewSnapshotStore()

	if _, ok := store.Latest(); ok {
		t.Fatal("expected empty store initially")
	}

	first := types.MarketSnapshot{
		Bids:  []types.MarketDepthEntry{{Price: 100, Quantity: 50, Orders: 3}, {Price: 99.5, Quantity: 20, Orders: 1}},
		Asks:  []types.MarketDepthEntry{{Price: 100.5, Quantity: 40, Orders: 2}},
		OHLCV: types.OHLCV{Open: 99, High: 101, Low: 98, Close: 99.5, Volume: 12345},
	}
	store.Replace(first)

	got, ok := store.Latest()
	if !ok {
		t.Fatal("expected snapshot present")
	}
	if len(got.Bids) != 2 || len(got.Asks) != 1 {
		t.Fatalf("snapshot not stored as given: %+v", got)
	}
	if got.OHLCV.Volume != 12345 {
		t.Errorf("ohlcv not stored: %+v", got.OHLCV)
	}

	// A second snapshot replaces the first with no merge artifacts.
	second := types.MarketSnapshot{
		Asks:  []types.MarketDepthEntry{{Price: 102, Quantity: 5, Orders: 1}},
		OHLCV: types.OHLCV{Open: 100},
	}
	store.Replace(second)

	got, _ = store.Latest()
	if len(got.Bids) != 0 {
		t.Errorf("bids from first snapshot leaked into second: %+v", got.Bids)
	}
	if len(got.Asks) != 1 || got.Asks[0].Price != 102 {
		t.Errorf("second snapshot asks not applied: %+v", got.Asks)
	}
	if got.OHLCV.Volume != 0 {
		t.Errorf("ohlcv merged instead of replaced: %+v", got.OHLCV)
	}
}

func TestSnapshotStoreReset(t *testing.T) {
	store := NewSnapshotStore()
	store.Replace(types.MarketSnapshot{OHLCV: types.OHLCV{Open: 1}})

	store.Reset()

	if _, ok := store.Latest(); ok {
		t.Error("expected empty store after reset")
	}
	if _, ok := store.OHLCV(); ok {
		t.Error("expected no ohlcv after reset")
	}
}
