// Package main is the entry point of the Fibonacci swing trading bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/fib-swing-bot/internal/alert"
	"github.com/your-org/fib-swing-bot/internal/config"
	"github.com/your-org/fib-swing-bot/internal/csvwriter"
	"github.com/your-org/fib-swing-bot/internal/dbwriter"
	"github.com/your-org/fib-swing-bot/internal/engine"
	"github.com/your-org/fib-swing-bot/internal/exchange/binance"
	"github.com/your-org/fib-swing-bot/internal/http/handler"
	"github.com/your-org/fib-swing-bot/internal/ledger"
	"github.com/your-org/fib-swing-bot/internal/report"
	"github.com/your-org/fib-swing-bot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	httpAddr := flag.String("http", ":8080", "Listen address for health and status endpoints")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.SetGlobalLogLevel(cfg.LogLevel)
	logger.Info("Fibonacci swing bot starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)
	logger.Infof("Target pair: %s, interval: %s", cfg.Pair, cfg.Interval)

	// --- Zap logger for the persistence layers ---
	var zapLogger *zap.Logger
	if cfg.LogLevel == "debug" {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		logger.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- Market data sources ---
	restClient := binance.NewClient(cfg.APIBaseURL)
	priceFeed := binance.NewLivePriceFeed("", cfg.Pair)
	go priceFeed.Run(ctx)
	priceSource := binance.NewPriceSource(priceFeed, restClient)

	// --- Engine options ---
	opts := []engine.Option{engine.WithNotifier(alert.NewNoOpNotifier())}

	// --- TimescaleDB writer (optional) ---
	var dbWriter dbwriter.DBWriter
	if cfg.DBWriter.Enabled.Bool() {
		pool, err := pgxpool.New(ctx, cfg.Database.URL())
		if err != nil {
			logger.Fatalf("Failed to create database pool: %v", err)
		}
		dbWriter, err = dbwriter.NewTimescaleWriter(pool, cfg.DBWriter, zapLogger)
		if err != nil {
			logger.Fatalf("Failed to initialize TimescaleDB writer: %v", err)
		}
		defer dbWriter.Close()
		opts = append(opts, engine.WithTradeSink(dbwriter.NewSink(dbWriter, cfg.Pair)))
		logger.Info("TimescaleDB writer initialized successfully.")
	}

	// --- CSV export (optional) ---
	if cfg.CSVExportPath != "" {
		csvWriter, err := csvwriter.NewWriter(cfg.CSVExportPath, cfg.Pair, zapLogger)
		if err != nil {
			logger.Fatalf("Failed to initialize CSV writer: %v", err)
		}
		defer csvWriter.Close()
		opts = append(opts, engine.WithTradeSink(csvWriter))
		logger.Infof("Exporting trades to %s", cfg.CSVExportPath)
	}

	// --- Engine ---
	eng, err := engine.New(cfg, restClient, priceSource, opts...)
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}
	if err := eng.Bootstrap(ctx); err != nil {
		logger.Fatalf("Failed to bootstrap engine: %v", err)
	}
	eng.RefreshReferencePrice(ctx)

	// --- Health and status server ---
	go func() {
		r := chi.NewRouter()
		r.Get("/health", handler.HealthCheckHandler)
		handler.NewStatusHandler(eng).RegisterRoutes(r)
		logger.Infof("HTTP server starting on %s", *httpAddr)
		if err := http.ListenAndServe(*httpAddr, r); err != nil {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// --- Graceful shutdown setup ---
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// --- Main evaluation loop ---
	evalTicker := time.NewTicker(time.Duration(cfg.UpdateIntervalMs) * time.Millisecond)
	statusTicker := time.NewTicker(time.Duration(cfg.StatusIntervalMinutes) * time.Minute)
	reportTicker := time.NewTicker(time.Duration(cfg.ReportIntervalMinutes) * time.Minute)
	defer evalTicker.Stop()
	defer statusTicker.Stop()
	defer reportTicker.Stop()

	eng.RunCycle(ctx)

loop:
	for {
		select {
		case <-evalTicker.C:
			eng.RunCycle(ctx)
		case <-statusTicker.C:
			eng.RefreshReferencePrice(ctx)
			printStatus(eng)
		case <-reportTicker.C:
			printReport(ctx, cfg, eng, dbWriter)
		case sig := <-sigs:
			logger.Infof("Received signal: %s, initiating shutdown...", sig)
			break loop
		}
	}

	// Final report before exit.
	printReport(ctx, cfg, eng, dbWriter)
	cancel()
	logger.Info("Fibonacci swing bot shut down gracefully.")
}

// printStatus logs the current engine snapshot.
func printStatus(eng *engine.Engine) {
	snap := eng.Snapshot()
	logger.Infof("--- Status (%s) ---", snap.Pair)
	logger.Infof("Price: %.8f  shortEMA: %.8f  longEMA: %.8f  RSI: %.1f",
		snap.Price, snap.ShortEMA, snap.LongEMA, snap.RSI)
	if len(snap.FibLevels) > 0 {
		logger.Infof("Fibonacci levels (trend %s):", snap.Trend)
		for _, lvl := range snap.FibLevels {
			marker := " "
			if lvl.Label == snap.ClosestLevel {
				marker = "*"
			}
			logger.Infof("  %s %-12s %.8f", marker, lvl.Label, lvl.Price)
		}
	}
	pos := snap.Position
	if pos.State == ledger.Long {
		logger.Infof("Position: LONG %.8f @ %.8f (unrealized %.2f%%) stop=%.8f target=%.8f",
			pos.Holdings, pos.EntryPrice, snap.OpenPnLPct, pos.StopLoss, pos.TakeProfit)
	} else {
		logger.Info("Position: flat")
	}
	if snap.ReferencePrice > 0 {
		logger.Infof("Portfolio: %.8f (~%.2f quote via reference)",
			pos.Balance+pos.Holdings*snap.Price,
			(pos.Balance+pos.Holdings*snap.Price)*snap.ReferencePrice)
	}
}

// printReport logs a performance summary and persists it when a database
// writer is configured.
func printReport(ctx context.Context, cfg *config.Config, eng *engine.Engine, dbWriter dbwriter.DBWriter) {
	snap := eng.Snapshot()
	summary := report.Summarize(cfg.Pair, eng.Trades(), cfg.InitialBalance,
		snap.Position.Balance, snap.Position.Holdings, snap.Price, time.Now().UTC())
	logger.Info(summary.String())

	if dbWriter == nil {
		return
	}
	row := dbwriter.Report{
		Time:           summary.GeneratedAt,
		Pair:           summary.Pair,
		TotalTrades:    summary.TotalTrades,
		ClosedTrades:   summary.ClosedTrades,
		WinRate:        summary.WinRate,
		AvgPnlPct:      summary.AvgPnlPct.InexactFloat64(),
		TotalReturnPct: summary.TotalReturnPct.InexactFloat64(),
		PortfolioValue: summary.PortfolioValue.InexactFloat64(),
	}
	if err := dbWriter.SaveReport(ctx, row); err != nil {
		logger.Warnf("Failed to persist performance report: %v", err)
	}
}
