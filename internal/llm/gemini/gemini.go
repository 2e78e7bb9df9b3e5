package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/news"
	"aura-trader/internal/store"
	"aura-trader/internal/trace"
	"aura-trader/internal/types"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Analyst calls the Gemini generateContent API to derive trading signals and
// trade explanations.
type Analyst struct {
	cfg      *store.Config
	state    *store.KVStore
	endpoint string
	client   *http.Client
}

func NewAnalyst(cfg *store.Config, state *store.KVStore) *Analyst {
	endpoint := defaultEndpoint
	if ep := os.Getenv("GEMINI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Analyst{
		cfg:      cfg,
		state:    state,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// signalSchema constrains the model to the AISignal shape.
var signalSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"signal": map[string]any{
			"type":        "STRING",
			"enum":        []string{"BUY", "SELL", "HOLD"},
			"description": "The trading signal: BUY, SELL, or HOLD.",
		},
		"confidence": map[string]any{
			"type":        "NUMBER",
			"description": "Confidence level of the signal, from 0.0 to 1.0.",
		},
		"target": map[string]any{
			"type":        "NUMBER",
			"description": "Suggested target price for the trade.",
		},
		"stoploss": map[string]any{
			"type":        "NUMBER",
			"description": "Suggested stop-loss price for the trade.",
		},
		"reason": map[string]any{
			"type":        "STRING",
			"description": "A brief, 1-2 sentence reason for the signal based on the provided data.",
		},
	},
	"required": []string{"signal", "confidence", "target", "stoploss", "reason"},
}

func (a *Analyst) Analyze(ctx context.Context, instrument string, ticks []types.Tick, headlines []types.NewsHeadline, ohlcv types.OHLCV) (types.AISignal, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-analyze")
	defer span.End()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return types.AISignal{}, &interfaces.AnalysisError{Kind: interfaces.AnalysisErrUnavailable, Err: errors.New("GEMINI_API_KEY missing")}
	}

	symbol := news.CleanInstrument(instrument)
	latestPrice := ohlcv.Close
	if len(ticks) > 0 {
		latestPrice = ticks[len(ticks)-1].Price
	}

	settings := a.state.Settings()
	system := fmt.Sprintf(`You are an expert financial analyst AI providing real-time trading signals for the Indian stock market.
Trading style: %s.
Analyze the provided market data for %s and generate a trading signal (BUY, SELL, or HOLD).
Your analysis must be based *only* on the data provided: recent price ticks, market sentiment from news headlines, and the day's OHLCV data.
Be decisive but cautious. If the data is ambiguous, it is better to signal HOLD.
Calculate a realistic target and stoploss based on the current price of %.2f. For a BUY signal, target should be higher and stoploss lower. For a SELL signal, target should be lower and stoploss higher. The stoploss should be closer to the current price than the target to manage risk.`,
		settings.TradingStrategy, symbol, latestPrice)

	prompt := fmt.Sprintf(`Instrument: %s
Current Price: %.2f

**Recent Price Ticks (latest last):**
%s

**Recent News Headlines:**
%s

**Day's OHLCV Data:**
%s

Based on this data, provide a trading signal in JSON format.`,
		symbol, latestPrice, formatTicks(ticks), formatHeadlines(headlines), formatOHLCV(ohlcv))

	text, err := a.generate(ctx, apiKey, system, prompt, signalSchema)
	if err != nil {
		return types.AISignal{}, err
	}

	var signal types.AISignal
	if err := json.Unmarshal([]byte(text), &signal); err != nil {
		return types.AISignal{}, &interfaces.AnalysisError{Kind: interfaces.AnalysisErrBadResponse, Err: fmt.Errorf("invalid signal JSON from model: %w", err)}
	}
	normalizeSignal(&signal, latestPrice)
	return signal, nil
}

func (a *Analyst) Explain(ctx context.Context, trade types.Trade) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-explain")
	defer span.End()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", &interfaces.AnalysisError{Kind: interfaces.AnalysisErrUnavailable, Err: errors.New("GEMINI_API_KEY missing")}
	}

	settings := a.state.Settings()
	system := settings.AIPersonality + `
You are explaining a trading decision you made previously.
Analyze the provided historical market data that was available at the moment of the trade.
Provide a concise, 2-3 sentence explanation for why you issued the original signal.
Focus on the interplay between price action (ticks) and news sentiment that led to the decision.
Do not give financial advice or comment on the trade's outcome. Just explain the original rationale.`

	prompt := fmt.Sprintf(`**Trade to Explain:**
I issued a **%s** signal at a price of **%.2f**.
My original reasoning was: %q.

**Market Context at Time of Trade:**

*Price Ticks Leading up to the Trade:*
%s

*News Headlines at the Time:*
%s

**Task:**
Based on the market context provided, please re-state and elaborate on the rationale for the %s signal in 2-3 sentences.`,
		trade.Signal.Signal, trade.Tick.Price, trade.Signal.Reason,
		formatTicks(trade.ContextTicks), formatHeadlines(trade.ContextHeadlines),
		trade.Signal.Signal)

	return a.generate(ctx, apiKey, system, prompt, nil)
}

// generate performs one generateContent call and returns the model text.
func (a *Analyst) generate(ctx context.Context, apiKey, system, prompt string, schema map[string]any) (string, error) {
	genConfig := map[string]any{
		"temperature":     a.cfg.LLM.Temperature,
		"maxOutputTokens": a.cfg.LLM.MaxTokens,
	}
	if schema != nil {
		genConfig["responseMimeType"] = "application/json"
		genConfig["responseSchema"] = schema
	}

	body := map[string]any{
		"systemInstruction": map[string]any{
			"parts": []map[string]string{{"text": system}},
		},
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": genConfig,
	}
	bb, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/%s:generateContent", a.endpoint, a.cfg.LLM.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", &interfaces.AnalysisError{Kind: interfaces.AnalysisErrTransport, Err: fmt.Errorf("gemini request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &interfaces.AnalysisError{Kind: interfaces.AnalysisErrTransport, Err: fmt.Errorf("gemini http %d: %s", resp.StatusCode, string(slurp))}
	}

	var r struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", &interfaces.AnalysisError{Kind: interfaces.AnalysisErrBadResponse, Err: fmt.Errorf("decode gemini response: %w", err)}
	}
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", &interfaces.AnalysisError{Kind: interfaces.AnalysisErrBadResponse, Err: errors.New("gemini returned no candidates")}
	}

	logger.Debug(ctx, "Gemini call completed",
		"model", a.cfg.LLM.Model,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(r.Candidates[0].Content.Parts[0].Text), nil
}

func formatTicks(ticks []types.Tick) string {
	if len(ticks) == 0 {
		return "No tick data available."
	}
	recent := ticks
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		ts := time.UnixMilli(t.Timestamp).Format("15:04:05")
		lines = append(lines, fmt.Sprintf("Price: %.2f at %s", t.Price, ts))
	}
	return strings.Join(lines, "\n")
}

func formatHeadlines(headlines []types.NewsHeadline) string {
	if len(headlines) == 0 {
		return "No news headlines available."
	}
	recent := headlines
	if len(recent) > 5 {
		recent = recent[:5]
	}
	lines := make([]string, 0, len(recent))
	for _, h := range recent {
		lines = append(lines, fmt.Sprintf("[%s] %s", h.Sentiment, h.Text))
	}
	return strings.Join(lines, "\n")
}

func formatOHLCV(ohlcv types.OHLCV) string {
	return fmt.Sprintf("Open: %g, High: %g, Low: %g, Close: %g, Volume: %d",
		ohlcv.Open, ohlcv.High, ohlcv.Low, ohlcv.Close, ohlcv.Volume)
}

// normalizeSignal clamps model output to valid ranges, defaulting to a HOLD
// at the latest price when fields are out of bounds.
func normalizeSignal(s *types.AISignal, latestPrice float64) {
	action := types.SignalAction(strings.ToUpper(strings.TrimSpace(string(s.Signal))))
	switch action {
	case types.ActionBuy, types.ActionSell, types.ActionHold:
		s.Signal = action
	default:
		s.Signal = types.ActionHold
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		s.Confidence = 0.0
	}
	if s.Target <= 0 {
		s.Target = latestPrice
	}
	if s.Stoploss <= 0 {
		s.Stoploss = latestPrice
	}
}
