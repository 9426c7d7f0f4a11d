package indicator

// CalculateRSI computes the relative strength index over the trailing
// `period` price deltas. Returns the neutral value 50 when not enough
// prices are supplied, and 100 when there are no losing deltas at all.
func CalculateRSI(prices []float64, period int) float64 {
	if len(prices) <= period {
		return 50
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
