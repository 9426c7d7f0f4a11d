// Package signal evaluates entry and exit conditions for the trading engine.
package signal

import (
	"errors"

	"github.com/your-org/fib-swing-bot/internal/config"
	"github.com/your-org/fib-swing-bot/internal/indicator"
	"github.com/your-org/fib-swing-bot/internal/market"
)

// ErrInsufficientData is returned while the candle series is still shorter
// than the long EMA period. The cycle is skipped, nothing mutates.
var ErrInsufficientData = errors.New("insufficient candle data")

// Action is the decision produced by one evaluation.
type Action int

const (
	Hold Action = iota
	EnterLong
	ExitLong
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case EnterLong:
		return "enter-long"
	case ExitLong:
		return "exit-long"
	}
	return "hold"
}

// Decision reasons, also recorded on executed trades.
const (
	ReasonEMARSI     = "ema/rsi"
	ReasonFibonacci  = "fibonacci"
	ReasonStopLoss   = "stop-loss"
	ReasonTakeProfit = "take-profit"
	ReasonFibStop    = "fibonacci stop"
	ReasonFibTarget  = "fibonacci target"
)

// downEntryRatio is the retracement checked for counter-trend entries.
const downEntryRatio = 0.786

// Decision is the outcome of one evaluation cycle plus the indicator
// readings that produced it.
type Decision struct {
	Action       Action
	Reason       string
	ShortEMA     float64
	LongEMA      float64
	RSI          float64
	ClosestLevel string
}

// PositionView is the slice of position state the evaluator needs.
type PositionView struct {
	Long       bool
	StopLoss   float64
	TakeProfit float64
}

// Evaluator holds the strategy parameters and the cached Fibonacci level
// set. Not safe for concurrent use.
type Evaluator struct {
	strategy config.StrategyConf
	fib      config.FibonacciConf
	levels   *indicator.Levels
}

// NewEvaluator creates an evaluator with no level set yet.
func NewEvaluator(strategy config.StrategyConf, fib config.FibonacciConf) *Evaluator {
	return &Evaluator{strategy: strategy, fib: fib}
}

// Levels returns the currently cached Fibonacci level set, nil before the
// first successful swing detection.
func (e *Evaluator) Levels() *indicator.Levels {
	return e.levels
}

// Evaluate runs the decision protocol once against the series and the live
// price. It mutates only the cached level set; applying the decision is the
// caller's job.
func (e *Evaluator) Evaluate(series *market.Series, price float64, pos PositionView) (Decision, error) {
	if series.Len() < e.strategy.LongEMAPeriod {
		return Decision{Action: Hold, Reason: "insufficient data"}, ErrInsufficientData
	}

	closes := series.Closes()
	shortEMA := indicator.CalculateEMA(closes[len(closes)-e.strategy.ShortEMAPeriod:], e.strategy.ShortEMAPeriod)
	longEMA := indicator.CalculateEMA(closes[len(closes)-e.strategy.LongEMAPeriod:], e.strategy.LongEMAPeriod)
	rsi := indicator.CalculateRSI(closes, e.strategy.RSIPeriod)

	e.refreshLevels(series)

	d := Decision{
		Action:   Hold,
		ShortEMA: shortEMA,
		LongEMA:  longEMA,
		RSI:      rsi,
	}
	if label, ok := e.levels.Closest(price); ok {
		d.ClosestLevel = label.String()
	}

	if !pos.Long {
		if reason, ok := e.entrySignal(price, shortEMA, longEMA, rsi); ok {
			d.Action = EnterLong
			d.Reason = reason
		}
		return d, nil
	}
	if reason, ok := e.exitSignal(price, pos, shortEMA, longEMA, rsi); ok {
		d.Action = ExitLong
		d.Reason = reason
	}
	return d, nil
}

// refreshLevels rescans the swing window every tenth candle count, or when
// no level set exists yet. A failed detection keeps the previous set.
func (e *Evaluator) refreshLevels(series *market.Series) {
	if series.Len()%10 != 0 && e.levels != nil {
		return
	}
	sw, ok := indicator.DetectSwing(series.Tail(e.fib.WindowSize), e.fib.WindowSize)
	if !ok {
		return
	}
	e.levels = indicator.DeriveLevels(sw.High, sw.Low, sw.Trend)
}

func (e *Evaluator) entrySignal(price, shortEMA, longEMA, rsi float64) (string, bool) {
	if shortEMA > longEMA && rsi < e.strategy.RSIOversold {
		return ReasonEMARSI, true
	}
	if e.levels != nil {
		near := func(ratio float64) bool {
			return e.levels.IsNear(price, ratio, e.fib.NearThreshold)
		}
		if e.levels.Trend == indicator.TrendUp && near(e.fib.EntryRatio) && rsi < 50 {
			return ReasonFibonacci, true
		}
		if e.levels.Trend == indicator.TrendDown && near(downEntryRatio) && rsi > 50 {
			return ReasonFibonacci, true
		}
	}
	return "", false
}

// exitSignal checks the exit conditions in fixed priority order; the first
// match wins.
func (e *Evaluator) exitSignal(price float64, pos PositionView, shortEMA, longEMA, rsi float64) (string, bool) {
	if price <= pos.StopLoss {
		return ReasonStopLoss, true
	}
	if price >= pos.TakeProfit {
		return ReasonTakeProfit, true
	}
	if e.levels != nil && e.levels.Trend == indicator.TrendUp {
		if price <= e.levels.Price(indicator.Label100) {
			return ReasonFibStop, true
		}
	}
	if shortEMA < longEMA && rsi > e.strategy.RSIOverbought {
		return ReasonEMARSI, true
	}
	if e.levels != nil && e.levels.Trend == indicator.TrendUp {
		if price >= e.levels.Price(indicator.Label0) ||
			(price >= e.levels.Price(indicator.LabelUp1618) && rsi > 70) {
			return ReasonFibTarget, true
		}
	}
	return "", false
}
