package analytics

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aura-trader/internal/types"
)

func buyTrade(entry, target, stoploss float64) types.Trade {
	return types.Trade{
		Signal: types.AISignal{Signal: types.ActionBuy, Target: target, Stoploss: stoploss},
		Tick:   types.Tick{Price: entry},
	}
}

func sellTrade(entry, target, stoploss float64) types.Trade {
	return types.Trade{
		Signal: types.AISignal{Signal: types.ActionSell, Target: target, Stoploss: stoploss},
		Tick:   types.Tick{Price: entry},
	}
}

// confirmAll pushes trades in chronological order so the log holds them
// newest first, matching production use.
func confirmAll(t *testing.T, log *TradeLog, trades ...types.Trade) {
	t.Helper()
	for _, tr := range trades {
		if err := log.Confirm(context.Background(), tr); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeEmptyLog(t *testing.T) {
	metrics, curve := Compute(nil)

	if metrics != (types.PerformanceMetrics{}) {
		t.Errorf("expected zero metrics, got %+v", metrics)
	}
	if len(curve) != 1 || curve[0] != (types.EquityDataPoint{TradeNumber: 0, CumulativePL: 0}) {
		t.Errorf("expected origin-only equity curve, got %+v", curve)
	}
}

func TestComputeAlternatingOutcomes(t *testing.T) {
	log := NewTradeLog()
	// Two identical BUYs: the first exits at target (+10), the second at
	// stoploss (-5).
	confirmAll(t, log,
		buyTrade(100, 110, 95),
		buyTrade(100, 110, 95),
	)

	metrics, curve := Compute(log.Trades())

	if metrics.TotalTrades != 2 || metrics.WinningTrades != 1 || metrics.LosingTrades != 1 {
		t.Fatalf("unexpected counts: %+v", metrics)
	}
	if !almostEqual(metrics.TotalNetPL, 5) {
		t.Errorf("expected net P/L +5, got %v", metrics.TotalNetPL)
	}
	if !almostEqual(metrics.WinRate, 50) {
		t.Errorf("expected winRate 50, got %v", metrics.WinRate)
	}
	if !almostEqual(metrics.ProfitFactor, 2) {
		t.Errorf("expected profitFactor 2, got %v", metrics.ProfitFactor)
	}
	if !almostEqual(metrics.AverageWin, 10) || !almostEqual(metrics.AverageLoss, 5) {
		t.Errorf("unexpected averages: %+v", metrics)
	}

	want := []types.EquityDataPoint{
		{TradeNumber: 0, CumulativePL: 0},
		{TradeNumber: 1, CumulativePL: 10},
		{TradeNumber: 2, CumulativePL: 5},
	}
	if len(curve) != len(want) {
		t.Fatalf("curve length %d, want %d", len(curve), len(want))
	}
	for i := range want {
		if curve[i].TradeNumber != want[i].TradeNumber || !almostEqual(curve[i].CumulativePL, want[i].CumulativePL) {
			t.Errorf("curve[%d] = %+v, want %+v", i, curve[i], want[i])
		}
	}
}

func TestComputeSellDirection(t *testing.T) {
	// SELL winner: entry - target. SELL loser: entry - stoploss.
	metrics, _ := Compute([]types.Trade{
		sellTrade(100, 90, 105), // chronological index 1: stoploss exit, P/L -5
		sellTrade(100, 90, 105), // chronological index 0: target exit, P/L +10
	})

	if !almostEqual(metrics.TotalNetPL, 5) {
		t.Errorf("expected net P/L +5, got %v", metrics.TotalNetPL)
	}
	if metrics.WinningTrades != 1 || metrics.LosingTrades != 1 {
		t.Errorf("unexpected counts: %+v", metrics)
	}
}

func TestClassificationFollowsSignNotIndex(t *testing.T) {
	// Target below entry on a BUY: assigned a target exit by index, but the
	// computed P/L is negative, so it counts as a loss.
	metrics, _ := Compute([]types.Trade{buyTrade(100, 95, 90)})

	if metrics.WinningTrades != 0 || metrics.LosingTrades != 1 {
		t.Fatalf("expected loss despite target exit, got %+v", metrics)
	}
	if !almostEqual(metrics.TotalNetPL, -5) {
		t.Errorf("expected net P/L -5, got %v", metrics.TotalNetPL)
	}
	if metrics.ProfitFactor != 0 || metrics.AverageWin != 0 {
		t.Errorf("expected zero profitFactor and averageWin, got %+v", metrics)
	}
}

func TestTradeLogCapEvictsOldest(t *testing.T) {
	log := NewTradeLog()
	for i := 0; i < DefaultMaxTrades+1; i++ {
		confirmAll(t, log, buyTrade(float64(i), float64(i)+10, float64(i)-5))
	}

	trades := log.Trades()
	if len(trades) != DefaultMaxTrades {
		t.Fatalf("expected %d trades after eviction, got %d", DefaultMaxTrades, len(trades))
	}
	// Newest first: head is the last confirmation, the very first one is gone.
	if trades[0].Tick.Price != float64(DefaultMaxTrades) {
		t.Errorf("head is not the newest trade: %+v", trades[0])
	}
	if trades[len(trades)-1].Tick.Price != 1 {
		t.Errorf("oldest trade not evicted: %+v", trades[len(trades)-1])
	}
}

func TestTradeLogRejectsHold(t *testing.T) {
	log := NewTradeLog()
	err := log.Confirm(context.Background(), types.Trade{
		Signal: types.AISignal{Signal: types.ActionHold},
		Tick:   types.Tick{Price: 100},
	})
	if err != ErrHoldNotTradable {
		t.Fatalf("expected ErrHoldNotTradable, got %v", err)
	}
	if log.Len() != 0 {
		t.Error("rejected trade was logged")
	}
}

func TestTradesReturnsCopy(t *testing.T) {
	log := NewTradeLog()
	confirmAll(t, log, buyTrade(100, 110, 95))

	got := log.Trades()
	got[0].Tick.Price = 1
	if log.Trades()[0].Tick.Price != 100 {
		t.Error("Trades exposed internal storage")
	}
}

func TestJournalAppend(t *testing.T) {
	dir := t.TempDir()
	log := NewTradeLog(WithJournal(NewJournal(dir)))
	confirmAll(t, log, buyTrade(100, 110, 95))

	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		t.Fatalf("reading journal dir: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one journal file, got %d", len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("reading journal file: %v", err)
	}
	if !strings.Contains(string(data), `"signal":"BUY"`) {
		t.Errorf("journal entry missing trade payload: %s", data)
	}
}
