// Package indicator provides technical indicator calculations.
package indicator

// CalculateEMA computes the exponential moving average of the given prices
// with smoothing factor k = 2/(period+1), seeded with the first element.
// When fewer prices than the period are supplied the last price is returned
// unchanged so callers get a neutral value during warm-up.
func CalculateEMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}
