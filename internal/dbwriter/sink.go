package dbwriter

import (
	"github.com/your-org/fib-swing-bot/internal/ledger"
)

// Sink adapts a DBWriter to the engine's trade sink.
type Sink struct {
	writer DBWriter
	pair   string
}

// NewSink creates a sink writing trades for the given pair.
func NewSink(writer DBWriter, pair string) *Sink {
	return &Sink{writer: writer, pair: pair}
}

// SaveTrade converts and forwards an executed ledger trade.
func (s *Sink) SaveTrade(trade ledger.Trade) {
	s.writer.SaveTrade(FromLedgerTrade(s.pair, trade))
}

// FromLedgerTrade converts a ledger trade into its database row.
func FromLedgerTrade(pair string, t ledger.Trade) Trade {
	return Trade{
		TradeID:          t.ID,
		Time:             t.Time,
		Pair:             pair,
		Side:             string(t.Side),
		Price:            t.Price,
		Amount:           t.Amount,
		Notional:         t.Notional,
		Fee:              t.Fee,
		ResultingBalance: t.ResultingBalance,
		PnlPct:           t.ProfitLossPct,
		Reason:           t.Reason,
		FibLevel:         t.FibLevel,
	}
}
