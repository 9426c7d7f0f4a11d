// Package main generates a performance report from persisted trades.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/fib-swing-bot/internal/config"
	"github.com/your-org/fib-swing-bot/internal/ledger"
	"github.com/your-org/fib-swing-bot/internal/report"
	"github.com/your-org/fib-swing-bot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	service := report.NewService(dbpool)
	trades, err := service.FetchTrades(ctx, cfg.Pair)
	if err != nil {
		logger.Fatalf("Failed to fetch trades: %v", err)
	}
	if len(trades) == 0 {
		logger.Infof("No trades recorded for %s yet.", cfg.Pair)
		return
	}

	// Each persisted fill carries the balance it settled at; the last one
	// is the current balance. Holdings are only open after a trailing BUY.
	last := trades[len(trades)-1]
	balance := last.ResultingBalance
	holdings := 0.0
	if last.Side == ledger.Buy {
		holdings = last.Amount
	}
	lastPrice := last.Price

	summary := report.Summarize(cfg.Pair, trades, cfg.InitialBalance,
		balance, holdings, lastPrice, time.Now().UTC())
	fmt.Println(summary.String())
}
