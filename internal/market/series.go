package market

// Series is a fixed-capacity, time-ordered candle buffer. It is the single
// source of truth for historical prices inside the engine. Series is not
// safe for concurrent use; the engine serializes all access.
type Series struct {
	candles []Candle
	maxLen  int
}

// NewSeries creates an empty series holding at most maxLen candles.
func NewSeries(maxLen int) *Series {
	return &Series{
		candles: make([]Candle, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Replace swaps the buffer contents for a fresh candle history. When the
// input exceeds the capacity only the most recent maxLen candles are kept.
func (s *Series) Replace(candles []Candle) {
	if len(candles) > s.maxLen {
		candles = candles[len(candles)-s.maxLen:]
	}
	s.candles = s.candles[:0]
	s.candles = append(s.candles, candles...)
}

// Append adds a newly closed candle, evicting the oldest when full.
func (s *Series) Append(c Candle) {
	if len(s.candles) == s.maxLen {
		copy(s.candles, s.candles[1:])
		s.candles = s.candles[:len(s.candles)-1]
	}
	s.candles = append(s.candles, c)
}

// UpdateLastTick folds a live trade price into the forming candle. The
// close is set to the price and high/low widen to contain it. A no-op
// when the series is empty.
func (s *Series) UpdateLastTick(price float64) {
	if len(s.candles) == 0 {
		return
	}
	last := &s.candles[len(s.candles)-1]
	last.Close = price
	if price > last.High {
		last.High = price
	}
	if price < last.Low {
		last.Low = price
	}
}

// Len returns the number of candles currently held.
func (s *Series) Len() int {
	return len(s.candles)
}

// Last returns the most recent candle, or false when the series is empty.
func (s *Series) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Closes returns a copy of all close prices in chronological order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.candles))
	for i, c := range s.candles {
		closes[i] = c.Close
	}
	return closes
}

// Tail returns a copy of the most recent n candles. When fewer are held
// the whole series is returned.
func (s *Series) Tail(n int) []Candle {
	if n > len(s.candles) {
		n = len(s.candles)
	}
	tail := make([]Candle, n)
	copy(tail, s.candles[len(s.candles)-n:])
	return tail
}
