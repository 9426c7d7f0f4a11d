// Package engine runs the evaluation loop that ties the market data,
// signal evaluator and position ledger together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/your-org/fib-swing-bot/internal/config"
	"github.com/your-org/fib-swing-bot/internal/ledger"
	"github.com/your-org/fib-swing-bot/internal/market"
	"github.com/your-org/fib-swing-bot/internal/signal"
	"github.com/your-org/fib-swing-bot/pkg/logger"
)

// CandleFetcher supplies historical candles for a pair.
type CandleFetcher interface {
	FetchCandles(ctx context.Context, pair, interval string, limit int) ([]market.Candle, error)
}

// PriceFetcher supplies the latest trade price for a pair.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, pair string) (float64, error)
}

// TradeSink receives every executed trade, for persistence or export.
// Implementations must not block the cycle.
type TradeSink interface {
	SaveTrade(trade ledger.Trade)
}

// Notifier receives a human-readable message per executed trade.
type Notifier interface {
	Send(message string) error
}

// FibLevel is one labeled entry of the active Fibonacci level set.
type FibLevel struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Snapshot is a point-in-time view of the engine for the status endpoint
// and periodic reports.
type Snapshot struct {
	Pair           string          `json:"pair"`
	Price          float64         `json:"price"`
	ReferencePrice float64         `json:"reference_price,omitempty"`
	Position       ledger.Snapshot `json:"position"`
	OpenPnLPct     float64         `json:"open_pnl_pct"`
	ShortEMA       float64         `json:"short_ema"`
	LongEMA        float64         `json:"long_ema"`
	RSI            float64         `json:"rsi"`
	Trend          string          `json:"trend,omitempty"`
	FibLevels      []FibLevel      `json:"fib_levels,omitempty"`
	ClosestLevel   string          `json:"closest_level,omitempty"`
	SeriesLen      int             `json:"series_len"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Engine owns all mutable trading state. RunCycle must be called from a
// single goroutine; Snapshot is safe to call concurrently.
type Engine struct {
	cfg      *config.Config
	series   *market.Series
	eval     *signal.Evaluator
	ledger   *ledger.Ledger
	candles  CandleFetcher
	prices   PriceFetcher
	sinks    []TradeSink
	notifier Notifier

	interval    time.Duration
	lastRefresh time.Time
	now         func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTradeSink attaches a sink that receives every executed trade.
func WithTradeSink(s TradeSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, s) }
}

// WithNotifier attaches a trade notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine from the configuration and data sources.
func New(cfg *config.Config, candles CandleFetcher, prices PriceFetcher, opts ...Option) (*Engine, error) {
	interval, err := ParseInterval(cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid candle interval: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		series:   market.NewSeries(cfg.LookbackLimit),
		eval:     signal.NewEvaluator(cfg.Strategy, cfg.Fibonacci),
		ledger:   ledger.New(cfg.InitialBalance, cfg.TradeFraction, cfg.Protection.StopLossPct, cfg.Protection.TakeProfitPct),
		candles:  candles,
		prices:   prices,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.snap = Snapshot{Pair: cfg.Pair, Position: e.ledger.Snapshot()}
	return e, nil
}

// ParseInterval converts a candle interval string like "30s", "1m", "4h",
// "1d" or "1w" into a duration.
func ParseInterval(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("malformed interval %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("malformed interval %q", s)
	}
	switch strings.ToLower(s[len(s)-1:]) {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("malformed interval %q", s)
}

// Bootstrap loads the initial candle history. An empty history is fatal:
// the engine cannot evaluate anything without it.
func (e *Engine) Bootstrap(ctx context.Context) error {
	candles, err := e.candles.FetchCandles(ctx, e.cfg.Pair, e.cfg.Interval, e.cfg.LookbackLimit)
	if err != nil {
		return fmt.Errorf("fetching initial candles for %s: %w", e.cfg.Pair, err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candle history available for %s", e.cfg.Pair)
	}
	e.series.Replace(candles)
	e.lastRefresh = e.now()
	logger.Infof("Bootstrapped %s with %d candles (%s)", e.cfg.Pair, e.series.Len(), e.cfg.Interval)
	return nil
}

// RunCycle performs one evaluation cycle: refresh candles when a bar has
// elapsed, fold in the live price, evaluate, and apply at most one ledger
// mutation. Failures skip the cycle without mutating anything; a panic is
// contained at the cycle boundary.
func (e *Engine) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Evaluation cycle abandoned after panic: %v", r)
		}
	}()

	now := e.now()
	if now.Sub(e.lastRefresh) >= e.interval {
		candles, err := e.candles.FetchCandles(ctx, e.cfg.Pair, e.cfg.Interval, e.cfg.LookbackLimit)
		if err != nil {
			logger.Warnf("Candle refresh failed, continuing with stale series: %v", err)
		} else if len(candles) > 0 {
			e.series.Replace(candles)
			e.lastRefresh = now
		}
	}

	price, err := e.prices.FetchPrice(ctx, e.cfg.Pair)
	if err != nil {
		if errors.Is(err, market.ErrPriceUnavailable) {
			logger.Debugf("No live price for %s yet, skipping cycle", e.cfg.Pair)
		} else {
			logger.Warnf("Price fetch failed, skipping cycle: %v", err)
		}
		return
	}

	e.series.UpdateLastTick(price)

	pos := signal.PositionView{
		Long:       e.ledger.State() == ledger.Long,
		StopLoss:   e.ledger.StopLoss(),
		TakeProfit: e.ledger.TakeProfit(),
	}
	decision, err := e.eval.Evaluate(e.series, price, pos)
	if err != nil {
		if errors.Is(err, signal.ErrInsufficientData) {
			logger.Infof("Waiting for candle data: %d/%d", e.series.Len(), e.cfg.Strategy.LongEMAPeriod)
		} else {
			logger.Errorf("Evaluation failed: %v", err)
		}
		// Keep the last published readings rather than zeroed ones.
		return
	}

	switch decision.Action {
	case signal.EnterLong:
		trade, err := e.ledger.Enter(price, now, e.eval.Levels(), decision.Reason)
		if err != nil {
			logger.Warnf("Entry rejected: %v", err)
			break
		}
		logger.Infof("BUY %s %.8f @ %.8f (%s) stop=%.8f target=%.8f",
			e.cfg.Pair, trade.Amount, trade.Price, trade.Reason,
			e.ledger.StopLoss(), e.ledger.TakeProfit())
		e.emitTrade(trade)
	case signal.ExitLong:
		trade, err := e.ledger.Exit(price, now, e.eval.Levels(), decision.Reason)
		if err != nil {
			logger.Warnf("Exit rejected: %v", err)
			break
		}
		logger.Infof("SELL %s %.8f @ %.8f (%s) pnl=%.2f%% balance=%.8f",
			e.cfg.Pair, trade.Amount, trade.Price, trade.Reason,
			trade.ProfitLossPct, e.ledger.Balance())
		e.emitTrade(trade)
	}

	e.publishSnapshot(price, decision)
}

func (e *Engine) emitTrade(trade ledger.Trade) {
	for _, sink := range e.sinks {
		sink.SaveTrade(trade)
	}
	if e.notifier != nil {
		msg := fmt.Sprintf("%s %s %.8f @ %.8f (%s)",
			trade.Side, e.cfg.Pair, trade.Amount, trade.Price, trade.Reason)
		if err := e.notifier.Send(msg); err != nil {
			logger.Warnf("Trade notification failed: %v", err)
		}
	}
}

func (e *Engine) publishSnapshot(price float64, decision signal.Decision) {
	levels := e.eval.Levels()
	var trend string
	var fibs []FibLevel
	if levels != nil {
		trend = levels.Trend.String()
		for _, entry := range levels.Ladder() {
			fibs = append(fibs, FibLevel{Label: entry.Label.String(), Price: entry.Price})
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ref := e.snap.ReferencePrice
	e.snap = Snapshot{
		Pair:           e.cfg.Pair,
		Price:          price,
		ReferencePrice: ref,
		Position:       e.ledger.Snapshot(),
		OpenPnLPct:     e.ledger.UnrealizedPnLPct(price),
		ShortEMA:       decision.ShortEMA,
		LongEMA:        decision.LongEMA,
		RSI:            decision.RSI,
		Trend:          trend,
		FibLevels:      fibs,
		ClosestLevel:   decision.ClosestLevel,
		SeriesLen:      e.series.Len(),
		UpdatedAt:      e.now(),
	}
}

// RefreshReferencePrice updates the display-only quote conversion price
// for the configured reference pair.
func (e *Engine) RefreshReferencePrice(ctx context.Context) {
	if e.cfg.ReferencePair == "" {
		return
	}
	price, err := e.prices.FetchPrice(ctx, e.cfg.ReferencePair)
	if err != nil {
		logger.Debugf("Reference price fetch failed: %v", err)
		return
	}
	e.mu.Lock()
	e.snap.ReferencePrice = price
	e.mu.Unlock()
}

// Snapshot returns the most recent engine state. Safe for concurrent use.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Trades returns a copy of the full trade log. Call from the cycle
// goroutine only.
func (e *Engine) Trades() []ledger.Trade {
	return e.ledger.Trades()
}
