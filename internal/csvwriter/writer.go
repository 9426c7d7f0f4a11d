// Package csvwriter exports the trade log to a CSV file.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/fib-swing-bot/internal/ledger"
)

var header = []string{"trade_id", "time", "pair", "side", "price", "amount", "notional", "fee", "resulting_balance", "pnl_pct", "reason", "fib_level"}

// Writer appends executed trades to a CSV file. It implements the
// engine's trade sink.
type Writer struct {
	file   *os.File
	writer *csv.Writer
	pair   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewWriter creates the file, writes the header and returns the writer.
func NewWriter(filePath, pair string, logger *zap.Logger) (*Writer, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	w := &Writer{
		file:   file,
		writer: csv.NewWriter(file),
		pair:   pair,
		logger: logger,
	}
	if err := w.writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	w.writer.Flush()
	return w, nil
}

// SaveTrade appends one trade record and flushes it to disk.
func (w *Writer) SaveTrade(trade ledger.Trade) {
	record := []string{
		trade.ID,
		trade.Time.UTC().Format("2006-01-02T15:04:05Z"),
		w.pair,
		string(trade.Side),
		strconv.FormatFloat(trade.Price, 'f', -1, 64),
		strconv.FormatFloat(trade.Amount, 'f', -1, 64),
		strconv.FormatFloat(trade.Notional, 'f', -1, 64),
		strconv.FormatFloat(trade.Fee, 'f', -1, 64),
		strconv.FormatFloat(trade.ResultingBalance, 'f', -1, 64),
		strconv.FormatFloat(trade.ProfitLossPct, 'f', 4, 64),
		trade.Reason,
		trade.FibLevel,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Write(record); err != nil {
		w.logger.Error("Failed to write trade to CSV", zap.Error(err), zap.String("trade_id", trade.ID))
		return
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.logger.Error("Failed to flush CSV", zap.Error(err))
	}
}

// Close flushes buffered records and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
	return w.file.Close()
}
