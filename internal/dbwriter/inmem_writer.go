package dbwriter

import (
	"context"
	"sync"
)

// InMemWriter is an in-memory implementation of the DBWriter interface for testing.
type InMemWriter struct {
	mu       sync.RWMutex
	Trades   []Trade
	Reports  []Report
	IsClosed bool
}

// NewInMemWriter creates a new InMemWriter.
func NewInMemWriter() *InMemWriter {
	return &InMemWriter{
		Trades:  make([]Trade, 0),
		Reports: make([]Report, 0),
	}
}

// SaveTrade appends a trade to the in-memory slice.
func (w *InMemWriter) SaveTrade(trade Trade) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Trades = append(w.Trades, trade)
}

// SaveReport appends a report to the in-memory slice.
func (w *InMemWriter) SaveReport(ctx context.Context, report Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Reports = append(w.Reports, report)
	return nil
}

// Close marks the writer as closed.
func (w *InMemWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.IsClosed = true
}

// Clear resets all the in-memory slices.
func (w *InMemWriter) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Trades = make([]Trade, 0)
	w.Reports = make([]Report, 0)
	w.IsClosed = false
}
