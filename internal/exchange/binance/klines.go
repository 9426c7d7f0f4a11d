package binance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/your-org/fib-swing-bot/internal/market"
)

// FetchCandles returns up to `limit` most recent candles for the pair at
// the given interval ("1m", "1h", ...), oldest first.
func (c *Client) FetchCandles(ctx context.Context, pair, interval string, limit int) ([]market.Candle, error) {
	query := url.Values{
		"symbol":   {pair},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	// Klines arrive as heterogeneous JSON arrays:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]interface{}
	if err := c.get(ctx, "/api/v3/klines", query, &rows); err != nil {
		return nil, err
	}

	candles := make([]market.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance: kline row %d: %w", i, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKline(row []interface{}) (market.Candle, error) {
	if len(row) < 6 {
		return market.Candle{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	openTime, ok := row[0].(float64)
	if !ok {
		return market.Candle{}, fmt.Errorf("open time is not a number: %v", row[0])
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return market.Candle{}, fmt.Errorf("field %d is not a string: %v", i, row[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		fields[i-1] = v
	}
	return market.Candle{
		OpenTime: int64(openTime),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}
