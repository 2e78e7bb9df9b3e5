package signal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/types"
)

// scriptTimer records scheduling without touching the wall clock.
type scriptTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *scriptTimer) Stop() bool {
	t.stopped = true
	return true
}

type timerScript struct {
	mu     sync.Mutex
	timers []*scriptTimer
}

func (s *timerScript) factory(d time.Duration, fn func()) timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &scriptTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs the i-th scheduled timer as the clock would.
func (s *timerScript) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	if !t.stopped {
		t.fn()
	}
}

func (s *timerScript) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fakeAnalyst returns a scripted signal or error and counts invocations.
type fakeAnalyst struct {
	mu     sync.Mutex
	calls  int
	signal types.AISignal
	err    error
	during func()
}

func (a *fakeAnalyst) Analyze(ctx context.Context, instrument string, ticks []types.Tick, headlines []types.NewsHeadline, ohlcv types.OHLCV) (types.AISignal, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.during != nil {
		a.during()
	}
	return a.signal, a.err
}

func (a *fakeAnalyst) Explain(ctx context.Context, trade types.Trade) (string, error) {
	return "", nil
}

func (a *fakeAnalyst) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func marketWith(nTicks, nHeadlines int, haveOHLCV bool) MarketContext {
	ticks := make([]types.Tick, nTicks)
	for i := range ticks {
		ticks[i] = types.Tick{Timestamp: int64(i), Price: 100 + float64(i)}
	}
	headlines := make([]types.NewsHeadline, nHeadlines)
	return MarketContext{
		Ticks:     func() []types.Tick { return ticks },
		Headlines: func() []types.NewsHeadline { return headlines },
		OHLCV: func() (types.OHLCV, bool) {
			return types.OHLCV{Open: 100, Close: 99}, haveOHLCV
		},
	}
}

func TestActivateSchedulesInitialDelay(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{}
	gen := NewGenerator(analyst, "NSE:NIFTY50-INDEX", marketWith(20, 3, true),
		WithTimerFactory(script.factory))

	gen.Activate()

	if gen.State() != Scheduled {
		t.Fatalf("expected Scheduled after activation, got %s", gen.State())
	}
	if script.count() != 1 {
		t.Fatalf("expected one timer armed, got %d", script.count())
	}
	if script.timers[0].delay != DefaultInitialDelay {
		t.Errorf("expected initial delay %v, got %v", DefaultInitialDelay, script.timers[0].delay)
	}
	if analyst.callCount() != 0 {
		t.Error("analyst called before timer fired")
	}
}

func TestNoAnalysisWhileIdle(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{}
	// Plenty of buffered context, but the generator is never activated.
	NewGenerator(analyst, "NSE:NIFTY50-INDEX", marketWith(200, 20, true),
		WithTimerFactory(script.factory))

	if script.count() != 0 {
		t.Fatal("timer armed without activation")
	}
	if analyst.callCount() != 0 {
		t.Fatal("analysis ran without activation")
	}
}

func TestPreconditionFailureReschedulesWithoutCalling(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{}
	gen := NewGenerator(analyst, "NSE:NIFTY50-INDEX", marketWith(5, 3, true),
		WithTimerFactory(script.factory))

	gen.Activate()
	script.fire(0)

	if analyst.callCount() != 0 {
		t.Fatal("analyst called despite insufficient ticks")
	}
	if gen.State() != Scheduled {
		t.Fatalf("expected Scheduled, got %s", gen.State())
	}
	if script.count() != 2 {
		t.Fatalf("expected a reschedule, got %d timers", script.count())
	}
	if script.timers[1].delay != DefaultInterval {
		t.Errorf("expected reschedule after %v, got %v", DefaultInterval, script.timers[1].delay)
	}
}

func TestSuccessfulCycleEmitsAndReschedules(t *testing.T) {
	script := &timerScript{}
	want := types.AISignal{Signal: types.ActionBuy, Confidence: 0.8, Target: 130, Stoploss: 115, Reason: "momentum"}
	analyst := &fakeAnalyst{signal: want}

	var emitted []types.AISignal
	gen := NewGenerator(analyst, "NSE:RELIANCE-EQ", marketWith(20, 3, true),
		WithTimerFactory(script.factory),
		WithSignalHandler(func(s types.AISignal) { emitted = append(emitted, s) }))

	gen.Activate()
	script.fire(0)

	if analyst.callCount() != 1 {
		t.Fatalf("expected one analysis call, got %d", analyst.callCount())
	}
	got, ok := gen.Current()
	if !ok || got != want {
		t.Fatalf("expected current signal %+v, got %+v (ok=%v)", want, got, ok)
	}
	if len(emitted) != 1 || emitted[0] != want {
		t.Fatalf("signal handler not invoked correctly: %+v", emitted)
	}
	if gen.State() != Scheduled {
		t.Fatalf("expected Scheduled after settle, got %s", gen.State())
	}
	if script.count() != 2 {
		t.Fatalf("expected a reschedule after settle, got %d timers", script.count())
	}
}

func TestAnalystFailureEmitsFallbackHold(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{
		err: &interfaces.AnalysisError{Kind: interfaces.AnalysisErrTransport, Err: errors.New("boom")},
	}
	gen := NewGenerator(analyst, "NSE:RELIANCE-EQ", marketWith(20, 3, true),
		WithTimerFactory(script.factory))

	gen.Activate()
	script.fire(0)

	got, ok := gen.Current()
	if !ok {
		t.Fatal("expected fallback signal to be emitted")
	}
	if got.Signal != types.ActionHold {
		t.Errorf("expected HOLD fallback, got %s", got.Signal)
	}
	// Latest tick price is 100 + 19.
	if got.Target != 119 || got.Stoploss != 119 {
		t.Errorf("fallback target/stoploss should equal latest price: %+v", got)
	}
	if got.Reason != fallbackReason {
		t.Errorf("unexpected fallback reason: %q", got.Reason)
	}
	if gen.State() != Scheduled {
		t.Fatalf("loop should continue after failure, got %s", gen.State())
	}
}

func TestDeactivateCancelsPendingTimerAndClearsSignal(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{signal: types.AISignal{Signal: types.ActionBuy}}
	gen := NewGenerator(analyst, "NSE:TCS-EQ", marketWith(20, 3, true),
		WithTimerFactory(script.factory))

	gen.Activate()
	script.fire(0)
	gen.Deactivate()

	if gen.State() != Idle {
		t.Fatalf("expected Idle, got %s", gen.State())
	}
	if _, ok := gen.Current(); ok {
		t.Error("current signal not cleared on deactivation")
	}
	if !script.timers[1].stopped {
		t.Error("pending reschedule timer not cancelled")
	}

	// A timer that had already fired into the scheduler is re-gated by state.
	script.fire(1)
	if analyst.callCount() != 1 {
		t.Error("analysis ran after deactivation")
	}
}

func TestDeactivateMidFlightDiscardsResult(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{signal: types.AISignal{Signal: types.ActionBuy}}
	gen := NewGenerator(analyst, "NSE:TCS-EQ", marketWith(20, 3, true),
		WithTimerFactory(script.factory))
	// Deactivation lands while the analysis call is in flight.
	analyst.during = gen.Deactivate

	gen.Activate()
	script.fire(0)

	if gen.State() != Idle {
		t.Fatalf("expected Idle, got %s", gen.State())
	}
	if _, ok := gen.Current(); ok {
		t.Error("in-flight result applied after deactivation")
	}
	if script.count() != 1 {
		t.Errorf("settle rescheduled despite deactivation: %d timers", script.count())
	}
}

func TestReactivateDuringFlightDiscardsStaleResult(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{signal: types.AISignal{Signal: types.ActionBuy, Target: 130, Stoploss: 115}}
	gen := NewGenerator(analyst, "NSE:NIFTY 50", marketWith(20, 3, true),
		WithTimerFactory(script.factory))
	// The upstream feed drops and reconnects while an analysis call is in
	// flight; the stale result must not attach to the new cycle.
	analyst.during = func() {
		if analyst.callCount() == 1 {
			gen.Deactivate()
			gen.Activate()
		}
	}

	gen.Activate()
	script.fire(0)

	if _, ok := gen.Current(); ok {
		t.Error("stale pre-deactivation result applied as current signal")
	}
	if gen.State() != Scheduled {
		t.Fatalf("expected the new cycle to remain Scheduled, got %s", gen.State())
	}
	// Exactly the initial timers of the two activations: the stale settle
	// must not arm a third scheduling loop.
	if script.count() != 2 {
		t.Fatalf("expected 2 timers (one per activation), got %d", script.count())
	}
	if script.timers[1].delay != DefaultInitialDelay {
		t.Errorf("reactivation timer delay %v, want %v", script.timers[1].delay, DefaultInitialDelay)
	}

	// The new cycle still runs normally.
	script.fire(1)
	if analyst.callCount() != 2 {
		t.Fatalf("new cycle did not analyze, calls=%d", analyst.callCount())
	}
	if got, ok := gen.Current(); !ok || got.Signal != types.ActionBuy {
		t.Fatalf("new cycle result not applied: %+v ok=%v", got, ok)
	}
}

func TestStaleTimerAfterReactivateIsInert(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{signal: types.AISignal{Signal: types.ActionHold}}
	gen := NewGenerator(analyst, "NSE:NIFTY 50", marketWith(20, 3, true),
		WithTimerFactory(script.factory))

	gen.Activate()
	gen.Deactivate()
	gen.Activate()

	// Force the first activation's callback to run despite Stop, as a timer
	// that had already fired into the scheduler would.
	script.timers[0].stopped = false
	script.fire(0)

	if analyst.callCount() != 0 {
		t.Fatal("callback from a deactivated cycle triggered analysis")
	}
	if script.count() != 2 {
		t.Fatalf("stale callback armed a timer: %d timers", script.count())
	}
}

func TestSingleFlightGuarantee(t *testing.T) {
	script := &timerScript{}
	analyst := &fakeAnalyst{signal: types.AISignal{Signal: types.ActionHold}}
	gen := NewGenerator(analyst, "NSE:SBIN-EQ", marketWith(20, 3, true),
		WithTimerFactory(script.factory))
	// A re-entrant timer fire during analysis must be a no-op.
	analyst.during = func() {
		if analyst.callCount() == 1 {
			gen.onTimer(0)
		}
	}

	gen.Activate()
	script.fire(0)

	if analyst.callCount() != 1 {
		t.Fatalf("expected exactly one in-flight analysis, got %d", analyst.callCount())
	}
}
