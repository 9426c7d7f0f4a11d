// Package ledger tracks the simulated position, balance and trade log.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/fib-swing-bot/internal/indicator"
)

// FeeRate is the simulated exchange fee charged on the notional value of
// both sides of a trade. Fixed simulation parameter.
const FeeRate = 0.001

var (
	// ErrAlreadyInPosition is returned by Enter while a position is open.
	ErrAlreadyInPosition = errors.New("already in position")
	// ErrNoOpenPosition is returned by Exit while flat.
	ErrNoOpenPosition = errors.New("no open position")
)

// State is the position state.
type State int

const (
	Flat State = iota
	Long
)

// String returns the string representation of the state.
func (s State) String() string {
	if s == Long {
		return "long"
	}
	return "flat"
}

// Side is the direction of an executed trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Trade is one executed simulated trade.
type Trade struct {
	ID               string
	Time             time.Time
	Side             Side
	Price            float64
	Amount           float64
	Notional         float64 // amount*price: cost on BUY, proceeds on SELL
	Fee              float64
	ResultingBalance float64 // quote balance after the trade settled
	ProfitLossPct    float64 // set on SELL only
	Reason           string
	FibLevel         string // closest Fibonacci level at execution, display only
}

// Snapshot is a read-only view of the ledger state.
type Snapshot struct {
	State      State
	Balance    float64
	Holdings   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	TradeCount int
}

// Ledger is the single-asset simulated position ledger. Not safe for
// concurrent use; the engine serializes all access.
type Ledger struct {
	balance  float64
	holdings float64
	state    State

	entryPrice float64
	stopLoss   float64
	takeProfit float64

	trades []Trade

	tradeFraction float64
	stopLossPct   float64
	takeProfitPct float64
}

// New creates a flat ledger with the given starting balance and sizing
// parameters.
func New(initialBalance, tradeFraction, stopLossPct, takeProfitPct float64) *Ledger {
	return &Ledger{
		balance:       initialBalance,
		tradeFraction: tradeFraction,
		stopLossPct:   stopLossPct,
		takeProfitPct: takeProfitPct,
	}
}

// Enter opens a long position at the given price. The position size is
// tradeFraction of the current balance; the fee comes out of the balance
// on top of the cost. Protective levels come from the Fibonacci set when
// its trend is up, otherwise from the configured percentage offsets.
func (l *Ledger) Enter(price float64, now time.Time, levels *indicator.Levels, reason string) (Trade, error) {
	if l.state != Flat {
		return Trade{}, ErrAlreadyInPosition
	}
	if price <= 0 {
		return Trade{}, fmt.Errorf("invalid entry price %v", price)
	}

	// Stage every mutation before applying any of them.
	amount := l.balance * l.tradeFraction / price
	cost := amount * price
	fee := cost * FeeRate

	stopLoss := price * (1 - l.stopLossPct)
	takeProfit := price * (1 + l.takeProfitPct)
	if levels != nil && levels.Trend == indicator.TrendUp {
		stopLoss = levels.Price(indicator.Label100)
		takeProfit = levels.Price(indicator.Label0)
	}

	trade := Trade{
		ID:               uuid.NewString(),
		Time:             now,
		Side:             Buy,
		Price:            price,
		Amount:           amount,
		Notional:         cost,
		Fee:              fee,
		ResultingBalance: l.balance - cost - fee,
		Reason:           reason,
		FibLevel:         closestLabel(levels, price),
	}

	l.balance -= cost + fee
	l.holdings += amount
	l.state = Long
	l.entryPrice = price
	l.stopLoss = stopLoss
	l.takeProfit = takeProfit
	l.trades = append(l.trades, trade)
	return trade, nil
}

// Exit closes the open position at the given price, crediting the notional
// value net of the fee back to the balance.
func (l *Ledger) Exit(price float64, now time.Time, levels *indicator.Levels, reason string) (Trade, error) {
	if l.state != Long {
		return Trade{}, ErrNoOpenPosition
	}
	if price <= 0 {
		return Trade{}, fmt.Errorf("invalid exit price %v", price)
	}

	value := l.holdings * price
	fee := value * FeeRate
	pnlPct := (price - l.entryPrice) / l.entryPrice * 100

	trade := Trade{
		ID:               uuid.NewString(),
		Time:             now,
		Side:             Sell,
		Price:            price,
		Amount:           l.holdings,
		Notional:         value,
		Fee:              fee,
		ResultingBalance: l.balance + value - fee,
		ProfitLossPct:    pnlPct,
		Reason:           reason,
		FibLevel:         closestLabel(levels, price),
	}

	l.balance += value - fee
	l.holdings = 0
	l.state = Flat
	l.entryPrice = 0
	l.stopLoss = 0
	l.takeProfit = 0
	l.trades = append(l.trades, trade)
	return trade, nil
}

func closestLabel(levels *indicator.Levels, price float64) string {
	label, ok := levels.Closest(price)
	if !ok {
		return ""
	}
	return label.String()
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		State:      l.state,
		Balance:    l.balance,
		Holdings:   l.holdings,
		EntryPrice: l.entryPrice,
		StopLoss:   l.stopLoss,
		TakeProfit: l.takeProfit,
		TradeCount: len(l.trades),
	}
}

// State returns the current position state.
func (l *Ledger) State() State { return l.state }

// Balance returns the free quote balance.
func (l *Ledger) Balance() float64 { return l.balance }

// Holdings returns the open base-asset amount.
func (l *Ledger) Holdings() float64 { return l.holdings }

// EntryPrice returns the open position's entry price, 0 when flat.
func (l *Ledger) EntryPrice() float64 { return l.entryPrice }

// StopLoss returns the active stop-loss price, 0 when flat.
func (l *Ledger) StopLoss() float64 { return l.stopLoss }

// TakeProfit returns the active take-profit price, 0 when flat.
func (l *Ledger) TakeProfit() float64 { return l.takeProfit }

// Trades returns a copy of the full trade log in execution order.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// PortfolioValue returns balance plus holdings marked at the given price.
func (l *Ledger) PortfolioValue(price float64) float64 {
	return l.balance + l.holdings*price
}

// UnrealizedPnLPct returns the open position's percentage move from entry,
// 0 when flat.
func (l *Ledger) UnrealizedPnLPct(price float64) float64 {
	if l.state != Long || l.entryPrice == 0 {
		return 0
	}
	return (price - l.entryPrice) / l.entryPrice * 100
}
