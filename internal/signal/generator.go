package signal

import (
	"context"
	"errors"
	"sync"
	"time"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/metrics"
	"aura-trader/internal/types"
)

const (
	// DefaultInitialDelay is the wait before the first analysis after activation.
	DefaultInitialDelay = 1 * time.Second
	// DefaultInterval is the wait between analysis cycles.
	DefaultInterval = 5 * time.Second
	// DefaultMinTicks is the minimum buffered ticks required to analyze.
	DefaultMinTicks = 10
)

// fallbackReason is the fixed explanation attached to the HOLD signal emitted
// when the analyst fails.
const fallbackReason = "Could not retrieve AI analysis due to an error. Holding position."

// State of the generator's scheduling machine.
type State int

const (
	// Idle: inactive, no timer pending, no current signal.
	Idle State = iota
	// Scheduled: a timer is pending for the next analysis attempt.
	Scheduled
	// Analyzing: an analysis call is in flight.
	Analyzing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Analyzing:
		return "analyzing"
	default:
		return "unknown"
	}
}

// timer is the cancellable handle owned by the generator, abstracted so tests
// can drive transitions without wall-clock delays.
type timer interface {
	Stop() bool
}

// TimerFactory schedules fn after d and returns a cancellable handle.
type TimerFactory func(d time.Duration, fn func()) timer

func realTimerFactory(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// MarketContext supplies the generator with the buffered inputs of one
// analysis cycle.
type MarketContext struct {
	Ticks     func() []types.Tick
	Headlines func() []types.NewsHeadline
	OHLCV     func() (types.OHLCV, bool)
}

// Generator drives periodic analysis of the buffered market context. It
// guarantees at most one analysis call in flight per session: re-entrancy is
// prevented by the Idle/Scheduled/Analyzing state machine, not by holding a
// lock across the call.
type Generator struct {
	analyst    interfaces.Analyst
	instrument string
	market     MarketContext
	onSignal   func(types.AISignal)

	initialDelay time.Duration
	interval     time.Duration
	minTicks     int
	newTimer     TimerFactory

	mu      sync.Mutex
	state   State
	epoch   uint64
	pending timer
	current *types.AISignal
}

// Option configures a Generator.
type Option func(*Generator)

// WithDelays overrides the initial delay and reschedule interval.
func WithDelays(initial, interval time.Duration) Option {
	return func(g *Generator) {
		if initial > 0 {
			g.initialDelay = initial
		}
		if interval > 0 {
			g.interval = interval
		}
	}
}

// WithMinTicks overrides the tick-count precondition.
func WithMinTicks(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.minTicks = n
		}
	}
}

// WithTimerFactory injects a virtual timer, used by tests.
func WithTimerFactory(f TimerFactory) Option {
	return func(g *Generator) {
		g.newTimer = f
	}
}

// WithSignalHandler registers a callback invoked for each emitted signal,
// outside the generator's lock.
func WithSignalHandler(fn func(types.AISignal)) Option {
	return func(g *Generator) {
		g.onSignal = fn
	}
}

func NewGenerator(analyst interfaces.Analyst, instrument string, market MarketContext, opts ...Option) *Generator {
	g := &Generator{
		analyst:      analyst,
		instrument:   instrument,
		market:       market,
		initialDelay: DefaultInitialDelay,
		interval:     DefaultInterval,
		minTicks:     DefaultMinTicks,
		newTimer:     realTimerFactory,
		state:        Idle,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Activate moves Idle -> Scheduled and arms the first analysis after the
// initial delay. Activating a non-idle generator is a no-op.
func (g *Generator) Activate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Idle {
		return
	}
	g.state = Scheduled
	g.armLocked(g.initialDelay)
}

// armLocked schedules the next attempt, binding it to the current epoch so
// callbacks from a cycle that was deactivated in the meantime are inert.
func (g *Generator) armLocked(d time.Duration) {
	epoch := g.epoch
	g.pending = g.newTimer(d, func() { g.onTimer(epoch) })
}

// Deactivate cancels any pending timer, clears the current signal, and moves
// to Idle. An in-flight analysis call is not aborted; bumping the epoch makes
// its settlement inert even if the generator is re-activated before the call
// returns.
func (g *Generator) Deactivate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
	g.epoch++
	g.state = Idle
	g.current = nil
}

// State returns the current scheduling state.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Current returns the latest emitted signal, if any.
func (g *Generator) Current() (types.AISignal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return types.AISignal{}, false
	}
	return *g.current, true
}

// onTimer fires one analysis attempt. Preconditions failing reschedules
// without calling the analyst.
func (g *Generator) onTimer(epoch uint64) {
	ctx := context.Background()

	g.mu.Lock()
	if g.state != Scheduled || epoch != g.epoch {
		// Deactivated (and possibly re-activated) after the timer fired but
		// before it ran.
		g.mu.Unlock()
		return
	}
	g.pending = nil

	ticks := g.market.Ticks()
	headlines := g.market.Headlines()
	ohlcv, haveOHLCV := g.market.OHLCV()

	if len(ticks) < g.minTicks || len(headlines) == 0 || !haveOHLCV {
		g.armLocked(g.interval)
		g.mu.Unlock()
		metrics.AnalysesTotal.WithLabelValues("skipped").Inc()
		logger.Debug(ctx, "Analysis skipped, insufficient context",
			"instrument", g.instrument,
			"ticks", len(ticks),
			"headlines", len(headlines),
			"ohlcv", haveOHLCV,
		)
		return
	}

	g.state = Analyzing
	g.mu.Unlock()

	signal, err := g.analyst.Analyze(ctx, g.instrument, ticks, headlines, ohlcv)
	g.settle(ctx, epoch, signal, err, ticks[len(ticks)-1].Price)
}

// settle applies one analysis result and reschedules if still active. The
// epoch check rejects results from a cycle that was deactivated while the
// call was in flight, even when a new cycle is already Analyzing.
func (g *Generator) settle(ctx context.Context, epoch uint64, signal types.AISignal, err error, latestPrice float64) {
	if err != nil {
		kind := classifyFailure(err)
		metrics.AnalysesTotal.WithLabelValues("error_" + string(kind)).Inc()
		logger.ErrorWithErr(ctx, "Analysis cycle failed", err,
			"instrument", g.instrument,
			"kind", kind,
		)
		signal = types.AISignal{
			Signal:     types.ActionHold,
			Confidence: 0.5,
			Target:     latestPrice,
			Stoploss:   latestPrice,
			Reason:     fallbackReason,
		}
	} else {
		metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	}

	g.mu.Lock()
	if g.state != Analyzing || epoch != g.epoch {
		// Deactivated while the call was in flight: discard, do not reschedule.
		g.mu.Unlock()
		return
	}
	g.current = &signal
	g.state = Scheduled
	g.armLocked(g.interval)
	g.mu.Unlock()

	logger.Signal(ctx, g.instrument, string(signal.Signal), signal.Confidence, signal.Reason)
	if g.onSignal != nil {
		g.onSignal(signal)
	}
}

func classifyFailure(err error) interfaces.AnalysisErrorKind {
	var ae *interfaces.AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return "unknown"
}
