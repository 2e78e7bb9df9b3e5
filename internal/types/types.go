package types

// Sentiment labels a news headline.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// SignalAction is the trading recommendation emitted by the analyst.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// Tick is a single timestamped price update for an instrument.
// Timestamp is milliseconds since epoch, matching the wire protocol.
type Tick struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume"`
}

// MarketDepthEntry is one level of the order book, best-to-worst ordered
// within a snapshot.
type MarketDepthEntry struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// OHLCV is the day's summary. Close carries the previous session's close.
type OHLCV struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// MarketSnapshot is the aggregated depth view plus OHLCV. Snapshots are
// replaced wholesale; there are no partial updates.
type MarketSnapshot struct {
	Bids  []MarketDepthEntry `json:"bids"`
	Asks  []MarketDepthEntry `json:"asks"`
	OHLCV OHLCV              `json:"ohlcv"`
}

type NewsHeadline struct {
	Timestamp int64     `json:"timestamp"`
	Sentiment Sentiment `json:"sentiment"`
	Text      string    `json:"text"`
}

// AISignal is the structured output of one analysis cycle.
type AISignal struct {
	Signal     SignalAction `json:"signal"`
	Confidence float64      `json:"confidence"`
	Target     float64      `json:"target"`
	Stoploss   float64      `json:"stoploss"`
	Reason     string       `json:"reason"`
}

// Trade is a user-confirmed simulated trade, immutable once logged.
// ContextTicks and ContextHeadlines capture the buffers at confirmation time.
type Trade struct {
	Signal           AISignal       `json:"signal"`
	Tick             Tick           `json:"tick"`
	ContextTicks     []Tick         `json:"contextTicks,omitempty"`
	ContextHeadlines []NewsHeadline `json:"contextHeadlines,omitempty"`
}

type PerformanceMetrics struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	TotalNetPL    float64 `json:"totalNetPL"`
	WinRate       float64 `json:"winRate"`
	ProfitFactor  float64 `json:"profitFactor"`
	AverageWin    float64 `json:"averageWin"`
	AverageLoss   float64 `json:"averageLoss"`
}

// EquityDataPoint is one point of the cumulative P/L curve. TradeNumber is
// 1-based; the curve always starts at {0, 0}.
type EquityDataPoint struct {
	TradeNumber  int     `json:"tradeNumber"`
	CumulativePL float64 `json:"cumulativePL"`
}

// TradingStrategy selects the analyst's trading style.
type TradingStrategy string

const (
	StrategyScalping TradingStrategy = "Scalping"
	StrategySwing    TradingStrategy = "Swing Trading"
	StrategyIntraday TradingStrategy = "Intraday Momentum"
)

// Settings is the persisted user configuration for the analyst.
type Settings struct {
	TradingStrategy TradingStrategy `json:"tradingStrategy"`
	AIPersonality   string          `json:"aiPersonality"`
}
