// Package report builds performance summaries from the trade log.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/fib-swing-bot/internal/ledger"
)

// Summary holds the aggregated performance of the simulation so far.
type Summary struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Pair           string          `json:"pair"`
	TotalTrades    int             `json:"total_trades"`
	ClosedTrades   int             `json:"closed_trades"`
	WinningTrades  int             `json:"winning_trades"`
	LosingTrades   int             `json:"losing_trades"`
	WinRate        float64         `json:"win_rate"`
	AvgPnlPct      decimal.Decimal `json:"avg_pnl_pct"`
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
}

// Summarize aggregates the trade log. A closed trade is a SELL; its
// ProfitLossPct feeds the win rate and the average P&L. The portfolio
// value marks open holdings at the given price.
func Summarize(pair string, trades []ledger.Trade, initialBalance, balance, holdings, lastPrice float64, now time.Time) Summary {
	s := Summary{
		GeneratedAt: now,
		Pair:        pair,
		TotalTrades: len(trades),
	}

	pnlSum := decimal.Zero
	for _, t := range trades {
		if t.Side != ledger.Sell {
			continue
		}
		s.ClosedTrades++
		if t.ProfitLossPct > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
		pnlSum = pnlSum.Add(decimal.NewFromFloat(t.ProfitLossPct))
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.ClosedTrades) * 100
		s.AvgPnlPct = pnlSum.Div(decimal.NewFromInt(int64(s.ClosedTrades)))
	}

	value := decimal.NewFromFloat(balance).
		Add(decimal.NewFromFloat(holdings).Mul(decimal.NewFromFloat(lastPrice)))
	s.PortfolioValue = value

	initial := decimal.NewFromFloat(initialBalance)
	if initial.IsPositive() {
		s.TotalReturnPct = value.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100))
	}
	return s
}

// String renders the summary as a compact multi-line report for the log.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Performance Report (%s) ---\n", s.Pair)
	fmt.Fprintf(&b, "Trades: %d total, %d closed (%d wins / %d losses)\n",
		s.TotalTrades, s.ClosedTrades, s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(&b, "Win rate: %.1f%%  Avg P&L: %s%%\n", s.WinRate, s.AvgPnlPct.StringFixed(2))
	fmt.Fprintf(&b, "Portfolio: %s (return %s%%)", s.PortfolioValue.StringFixed(8), s.TotalReturnPct.StringFixed(2))
	return b.String()
}
