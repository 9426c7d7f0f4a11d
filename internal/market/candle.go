// Package market provides candle data structures for the trading engine.
package market

// Candle represents a single OHLCV bar.
type Candle struct {
	OpenTime int64 // Unix milliseconds of the bar open
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}
