package analytics

import (
	"github.com/shopspring/decimal"

	"aura-trader/internal/types"
)

// Compute derives aggregate metrics and the equity curve from the trade log.
// Input is newest-first (as stored); computation walks the chronological
// order. The whole result is recomputed from scratch on every call.
//
// Outcome assignment is synthetic: without real fills, trades alternate by
// chronological position — even index exits at target, odd index at
// stoploss. Win/loss classification still follows the sign of the computed
// P/L, not the index, so inverted target/stoploss values count as losses.
func Compute(trades []types.Trade) (types.PerformanceMetrics, []types.EquityDataPoint) {
	curve := []types.EquityDataPoint{{TradeNumber: 0, CumulativePL: 0}}
	metrics := types.PerformanceMetrics{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return metrics, curve
	}

	totalProfit := decimal.Zero
	totalLoss := decimal.Zero
	cumulative := decimal.Zero

	for i := range trades {
		trade := trades[len(trades)-1-i]
		pl := tradePL(trade, i)

		if pl.IsPositive() {
			metrics.WinningTrades++
			totalProfit = totalProfit.Add(pl)
		} else {
			metrics.LosingTrades++
			totalLoss = totalLoss.Add(pl.Abs())
		}

		cumulative = cumulative.Add(pl)
		curve = append(curve, types.EquityDataPoint{
			TradeNumber:  i + 1,
			CumulativePL: cumulative.InexactFloat64(),
		})
	}

	metrics.TotalNetPL = cumulative.InexactFloat64()
	metrics.WinRate = decimal.NewFromInt(int64(metrics.WinningTrades)).
		Div(decimal.NewFromInt(int64(metrics.TotalTrades))).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
	if !totalLoss.IsZero() {
		metrics.ProfitFactor = totalProfit.Div(totalLoss).InexactFloat64()
	}
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = totalProfit.
			Div(decimal.NewFromInt(int64(metrics.WinningTrades))).
			InexactFloat64()
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = totalLoss.
			Div(decimal.NewFromInt(int64(metrics.LosingTrades))).
			InexactFloat64()
	}
	return metrics, curve
}

// tradePL computes the synthetic P/L for the trade at chronological index i.
func tradePL(trade types.Trade, i int) decimal.Decimal {
	entry := decimal.NewFromFloat(trade.Tick.Price)
	exit := decimal.NewFromFloat(trade.Signal.Target)
	if i%2 != 0 {
		exit = decimal.NewFromFloat(trade.Signal.Stoploss)
	}
	if trade.Signal.Signal == types.ActionSell {
		return entry.Sub(exit)
	}
	return exit.Sub(entry)
}
