// Package dbwriter persists executed trades and performance reports to
// TimescaleDB. Writes are buffered and flushed in batches.
package dbwriter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/your-org/fib-swing-bot/internal/config"
)

// Trade is the database row for one executed simulated trade.
type Trade struct {
	TradeID          string    `db:"trade_id"`
	Time             time.Time `db:"time"`
	Pair             string    `db:"pair"`
	Side             string    `db:"side"` // "BUY" or "SELL"
	Price            float64   `db:"price"`
	Amount           float64   `db:"amount"`
	Notional         float64   `db:"notional"`
	Fee              float64   `db:"fee"`
	ResultingBalance float64   `db:"resulting_balance"`
	PnlPct           float64   `db:"pnl_pct"`
	Reason           string    `db:"reason"`
	FibLevel         string    `db:"fib_level"`
}

// Report is the database row for one periodic performance report.
type Report struct {
	Time           time.Time `db:"time"`
	Pair           string    `db:"pair"`
	TotalTrades    int       `db:"total_trades"`
	ClosedTrades   int       `db:"closed_trades"`
	WinRate        float64   `db:"win_rate"`
	AvgPnlPct      float64   `db:"avg_pnl_pct"`
	TotalReturnPct float64   `db:"total_return_pct"`
	PortfolioValue float64   `db:"portfolio_value"`
}

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Close()
}

// TimescaleWriter buffers trades and flushes them to TimescaleDB on a
// ticker or when the batch size is reached. A nil pool turns it into a
// no-op writer for runs without a database.
type TimescaleWriter struct {
	pool         Pool
	logger       *zap.Logger
	config       config.DBWriterConfig
	tradeBuffer  []Trade
	bufferMutex  sync.Mutex
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
}

// NewTimescaleWriter creates a writer over an externally provided pool.
// Passing a nil pool yields a dummy writer that drops everything.
func NewTimescaleWriter(pool Pool, writerConfig config.DBWriterConfig, logger *zap.Logger) (DBWriter, error) {
	if pool == nil {
		logger.Info("pgxpool.Pool is nil, creating dummy DB writer.")
		return &TimescaleWriter{
			pool:         nil,
			logger:       logger,
			shutdownChan: make(chan struct{}),
		}, nil
	}

	if writerConfig.WriteIntervalSeconds <= 0 {
		logger.Warn("WriteIntervalSeconds is zero or negative, defaulting to 1s.",
			zap.Int("originalValue", writerConfig.WriteIntervalSeconds))
		writerConfig.WriteIntervalSeconds = 1
	}
	if writerConfig.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, defaulting to 100.",
			zap.Int("originalValue", writerConfig.BatchSize))
		writerConfig.BatchSize = 100
	}

	writer := &TimescaleWriter{
		pool:         pool,
		logger:       logger,
		config:       writerConfig,
		tradeBuffer:  make([]Trade, 0, writerConfig.BatchSize),
		shutdownChan: make(chan struct{}),
	}

	writer.flushTicker = time.NewTicker(time.Duration(writerConfig.WriteIntervalSeconds) * time.Second)
	go writer.run()
	logger.Info("Connected to TimescaleDB and started batch writer")

	return writer, nil
}

// Close stops the background flusher, flushes the remaining buffer and
// closes the pool.
func (w *TimescaleWriter) Close() {
	if w.pool == nil {
		w.logger.Info("Closing dummy DB writer.")
		return
	}

	w.logger.Info("Closing TimescaleDB writer...")
	close(w.shutdownChan)
	w.flushTicker.Stop()

	w.flushBuffers()

	w.pool.Close()
	w.logger.Info("TimescaleDB connection pool closed")
}

func (w *TimescaleWriter) run() {
	for {
		select {
		case <-w.flushTicker.C:
			w.flushBuffers()
		case <-w.shutdownChan:
			return
		}
	}
}

// SaveTrade appends a trade to the buffer, flushing when full.
func (w *TimescaleWriter) SaveTrade(trade Trade) {
	if w.pool == nil {
		return
	}

	w.bufferMutex.Lock()
	w.tradeBuffer = append(w.tradeBuffer, trade)
	shouldFlush := len(w.tradeBuffer) >= w.config.BatchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flushBuffers()
	}
}

func (w *TimescaleWriter) flushBuffers() {
	if w.pool == nil {
		return
	}
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	if len(w.tradeBuffer) > 0 {
		w.batchInsertTrades(context.Background(), w.tradeBuffer)
		w.tradeBuffer = w.tradeBuffer[:0]
	}
}

func (w *TimescaleWriter) batchInsertTrades(ctx context.Context, trades []Trade) {
	w.logger.Debug("Flushing trades", zap.Int("count", len(trades)))
	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"trades"},
		[]string{"trade_id", "time", "pair", "side", "price", "amount", "notional", "fee", "resulting_balance", "pnl_pct", "reason", "fib_level"},
		pgx.CopyFromRows(toTradeInterfaces(trades)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert trades", zap.Error(err))
	}
}

func toTradeInterfaces(trades []Trade) [][]interface{} {
	rows := make([][]interface{}, len(trades))
	for i, t := range trades {
		rows[i] = []interface{}{t.TradeID, t.Time, t.Pair, t.Side, t.Price, t.Amount, t.Notional, t.Fee, t.ResultingBalance, t.PnlPct, t.Reason, t.FibLevel}
	}
	return rows
}

// SaveReport inserts a single performance report row.
func (w *TimescaleWriter) SaveReport(ctx context.Context, report Report) error {
	if w.pool == nil {
		w.logger.Debug("Skipping report save for dummy writer", zap.Any("report", report))
		return nil
	}

	query := `INSERT INTO performance_reports (time, pair, total_trades, closed_trades, win_rate, avg_pnl_pct, total_return_pct, portfolio_value)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := w.pool.Exec(ctx, query,
		report.Time, report.Pair,
		report.TotalTrades, report.ClosedTrades,
		report.WinRate, report.AvgPnlPct,
		report.TotalReturnPct, report.PortfolioValue,
	)
	if err != nil {
		w.logger.Error("Failed to insert performance report", zap.Error(err), zap.Any("report", report))
		return fmt.Errorf("failed to insert performance report: %w", err)
	}
	return nil
}
