package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/fib-swing-bot/internal/indicator"
	"github.com/your-org/fib-swing-bot/internal/ledger"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger() *ledger.Ledger {
	return ledger.New(1.0, 0.1, 0.03, 0.05)
}

func TestLedger_EnterExitRoundTrip(t *testing.T) {
	l := newTestLedger()

	buy, err := l.Enter(100, testTime, nil, "ema/rsi")
	require.NoError(t, err)

	assert.Equal(t, ledger.Buy, buy.Side)
	assert.NotEmpty(t, buy.ID)
	assert.InDelta(t, 0.001, buy.Amount, 1e-12, "amount is tradeFraction of balance at price")
	assert.InDelta(t, 0.1, buy.Notional, 1e-12, "notional is the cost of the fill")
	assert.InDelta(t, 0.0001, buy.Fee, 1e-12, "fee is 0.1% of cost")
	assert.InDelta(t, 0.8999, buy.ResultingBalance, 1e-12, "balance after debiting cost and fee")
	assert.Equal(t, ledger.Long, l.State())
	assert.InDelta(t, 0.8999, l.Balance(), 1e-12)
	assert.InDelta(t, 0.001, l.Holdings(), 1e-12)
	assert.Equal(t, 100.0, l.EntryPrice())

	sell, err := l.Exit(105, testTime.Add(time.Minute), nil, "take-profit")
	require.NoError(t, err)

	assert.Equal(t, ledger.Sell, sell.Side)
	assert.InDelta(t, 5.0, sell.ProfitLossPct, 1e-12)
	assert.Equal(t, "take-profit", sell.Reason)
	assert.Equal(t, ledger.Flat, l.State())
	assert.Equal(t, 0.0, l.Holdings())
	assert.Equal(t, 0.0, l.EntryPrice())
	assert.Equal(t, 0.0, l.StopLoss())
	assert.Equal(t, 0.0, l.TakeProfit())

	// balance = 1 - cost - buyFee + value - sellFee, both fees 0.1% of notional
	wantBalance := 1.0 - 0.1 - 0.0001 + 0.105 - 0.000105
	assert.InDelta(t, 0.105, sell.Notional, 1e-12, "notional is the proceeds of the fill")
	assert.InDelta(t, wantBalance, sell.ResultingBalance, 1e-12)
	assert.InDelta(t, wantBalance, l.Balance(), 1e-12)

	require.Len(t, l.Trades(), 2)
	assert.NotEqual(t, l.Trades()[0].ID, l.Trades()[1].ID)
}

func TestLedger_StopLossRealizesLoss(t *testing.T) {
	l := newTestLedger()
	_, err := l.Enter(100, testTime, nil, "ema/rsi")
	require.NoError(t, err)

	sell, err := l.Exit(97, testTime.Add(time.Minute), nil, "stop-loss")
	require.NoError(t, err)

	assert.InDelta(t, -3.0, sell.ProfitLossPct, 1e-12)
	assert.Less(t, l.Balance(), 1.0, "a stopped-out trade plus fees must shrink the balance")
}

func TestLedger_InvalidTransitions(t *testing.T) {
	t.Run("double enter", func(t *testing.T) {
		l := newTestLedger()
		_, err := l.Enter(100, testTime, nil, "ema/rsi")
		require.NoError(t, err)
		before := l.Snapshot()

		_, err = l.Enter(101, testTime, nil, "ema/rsi")
		assert.ErrorIs(t, err, ledger.ErrAlreadyInPosition)
		assert.Equal(t, before, l.Snapshot(), "rejected enter must not mutate anything")
	})

	t.Run("exit while flat", func(t *testing.T) {
		l := newTestLedger()
		before := l.Snapshot()

		_, err := l.Exit(100, testTime, nil, "stop-loss")
		assert.ErrorIs(t, err, ledger.ErrNoOpenPosition)
		assert.Equal(t, before, l.Snapshot())
	})

	t.Run("non-positive price", func(t *testing.T) {
		l := newTestLedger()
		_, err := l.Enter(0, testTime, nil, "ema/rsi")
		assert.Error(t, err)
		assert.Equal(t, ledger.Flat, l.State())
	})
}

func TestLedger_ProtectiveLevels(t *testing.T) {
	t.Run("from fibonacci set when trend is up", func(t *testing.T) {
		l := newTestLedger()
		levels := indicator.DeriveLevels(120, 100, indicator.TrendUp)

		buy, err := l.Enter(108, testTime, levels, "fibonacci")
		require.NoError(t, err)

		assert.Equal(t, 100.0, l.StopLoss(), "stop-loss anchors to the 100% level")
		assert.Equal(t, 120.0, l.TakeProfit(), "take-profit anchors to the 0% level")
		assert.Equal(t, "61.8%", buy.FibLevel)
	})

	t.Run("percentage fallback when trend is down", func(t *testing.T) {
		l := newTestLedger()
		levels := indicator.DeriveLevels(120, 100, indicator.TrendDown)

		_, err := l.Enter(108, testTime, levels, "fibonacci")
		require.NoError(t, err)

		assert.InDelta(t, 108*0.97, l.StopLoss(), 1e-9)
		assert.InDelta(t, 108*1.05, l.TakeProfit(), 1e-9)
	})

	t.Run("percentage fallback without levels", func(t *testing.T) {
		l := newTestLedger()

		_, err := l.Enter(100, testTime, nil, "ema/rsi")
		require.NoError(t, err)

		assert.InDelta(t, 97.0, l.StopLoss(), 1e-9)
		assert.InDelta(t, 105.0, l.TakeProfit(), 1e-9)
	})
}

func TestLedger_PortfolioValueAndUnrealized(t *testing.T) {
	l := newTestLedger()
	assert.Equal(t, 1.0, l.PortfolioValue(100))
	assert.Equal(t, 0.0, l.UnrealizedPnLPct(100))

	_, err := l.Enter(100, testTime, nil, "ema/rsi")
	require.NoError(t, err)

	assert.InDelta(t, 2.0, l.UnrealizedPnLPct(102), 1e-12)
	// Only the buy fee has left the portfolio while the price is unchanged.
	assert.InDelta(t, 1.0-0.0001, l.PortfolioValue(100), 1e-12)
}
