package dbwriter

import (
	"context"
)

// DBWriter defines the interface for writing trade data to the database.
// This allows for mocking in tests.
type DBWriter interface {
	SaveTrade(trade Trade)
	SaveReport(ctx context.Context, report Report) error
	Close()
}
