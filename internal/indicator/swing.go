package indicator

import "github.com/your-org/fib-swing-bot/internal/market"

// Trend is the direction of the most recent swing.
type Trend int

const (
	TrendDown Trend = iota
	TrendUp
)

// String returns the string representation of the trend.
func (t Trend) String() string {
	if t == TrendUp {
		return "up"
	}
	return "down"
}

// Swing holds the extremes found in a trailing candle window.
type Swing struct {
	High      float64
	Low       float64
	HighIndex int
	LowIndex  int
	Trend     Trend
}

// DetectSwing scans exactly the trailing `window` candles for the highest
// high and lowest low. The first occurrence of an extreme wins ties. Trend
// is up when the high appears after the low. Returns false when the input
// holds fewer candles than the window.
func DetectSwing(candles []market.Candle, window int) (Swing, bool) {
	if window <= 0 || len(candles) < window {
		return Swing{}, false
	}
	recent := candles[len(candles)-window:]

	sw := Swing{High: recent[0].High, Low: recent[0].Low}
	for i, c := range recent[1:] {
		if c.High > sw.High {
			sw.High = c.High
			sw.HighIndex = i + 1
		}
		if c.Low < sw.Low {
			sw.Low = c.Low
			sw.LowIndex = i + 1
		}
	}
	if sw.HighIndex > sw.LowIndex {
		sw.Trend = TrendUp
	}
	return sw, true
}
