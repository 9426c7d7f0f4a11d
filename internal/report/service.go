package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/fib-swing-bot/internal/ledger"
)

// Service loads persisted trades for offline report generation.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new report service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// FetchTrades returns all persisted trades for the pair in execution order.
func (s *Service) FetchTrades(ctx context.Context, pair string) ([]ledger.Trade, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trade_id, time, side, price, amount, notional, fee, resulting_balance, pnl_pct, reason, fib_level
		FROM trades
		WHERE pair = $1
		ORDER BY time ASC`, pair)
	if err != nil {
		return nil, fmt.Errorf("querying trades for %s: %w", pair, err)
	}
	defer rows.Close()

	var trades []ledger.Trade
	for rows.Next() {
		var t ledger.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Time, &side, &t.Price, &t.Amount, &t.Notional, &t.Fee, &t.ResultingBalance, &t.ProfitLossPct, &t.Reason, &t.FibLevel); err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}
		t.Side = ledger.Side(side)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trade rows: %w", err)
	}
	return trades, nil
}
