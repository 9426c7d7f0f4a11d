package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/fib-swing-bot/internal/ledger"
	"github.com/your-org/fib-swing-bot/internal/report"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	trades := []ledger.Trade{
		{Side: ledger.Buy, Price: 100},
		{Side: ledger.Sell, Price: 105, ProfitLossPct: 5},
		{Side: ledger.Buy, Price: 104},
		{Side: ledger.Sell, Price: 101, ProfitLossPct: -2.885},
		{Side: ledger.Buy, Price: 102},
	}

	s := report.Summarize("SOLBTC", trades, 1.0, 0.9, 0.001, 102, now)

	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 2, s.ClosedTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 50.0, s.WinRate)
	assert.Equal(t, "1.06", s.AvgPnlPct.StringFixed(2))
	// 0.9 balance + 0.001 holdings * 102
	assert.Equal(t, "1.00200000", s.PortfolioValue.StringFixed(8))
	assert.Equal(t, "0.20", s.TotalReturnPct.StringFixed(2))
}

func TestSummarize_NoTrades(t *testing.T) {
	s := report.Summarize("SOLBTC", nil, 1.0, 1.0, 0, 100, time.Now())

	assert.Equal(t, 0, s.TotalTrades)
	assert.Equal(t, 0.0, s.WinRate)
	assert.True(t, s.AvgPnlPct.IsZero())
	assert.Equal(t, "0.00", s.TotalReturnPct.StringFixed(2))
	assert.NotEmpty(t, s.String())
}

func TestSummarize_BreakEvenCountsAsLoss(t *testing.T) {
	trades := []ledger.Trade{
		{Side: ledger.Sell, ProfitLossPct: 0},
	}
	s := report.Summarize("SOLBTC", trades, 1.0, 1.0, 0, 100, time.Now())

	assert.Equal(t, 1, s.ClosedTrades)
	assert.Equal(t, 0, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
}
