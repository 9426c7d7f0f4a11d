package indicator

// Label identifies a single Fibonacci level within a level set.
type Label int

const (
	Label0 Label = iota
	Label236
	Label382
	Label500
	Label618
	Label786
	Label100
	Label1618 // downward extension below the swing low
	Label2618 // downward extension below the swing low
	LabelUp1618
	LabelUp2618
)

// String returns the conventional percentage name of the level.
func (l Label) String() string {
	switch l {
	case Label0:
		return "0%"
	case Label236:
		return "23.6%"
	case Label382:
		return "38.2%"
	case Label500:
		return "50%"
	case Label618:
		return "61.8%"
	case Label786:
		return "78.6%"
	case Label100:
		return "100%"
	case Label1618:
		return "161.8%"
	case Label2618:
		return "261.8%"
	case LabelUp1618:
		return "161.8% (up)"
	case LabelUp2618:
		return "261.8% (up)"
	}
	return "unknown"
}

// RetracementRatios are the named ratios recognized by IsNear, in the
// fixed enumeration order.
var RetracementRatios = [7]float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

// closestLabels is the fixed enumeration Closest searches, ties resolved
// by first-encountered order.
var closestLabels = [9]Label{
	Label0, Label236, Label382, Label500, Label618, Label786,
	Label100, Label1618, Label2618,
}

// Levels is an immutable set of Fibonacci retracement and extension
// levels derived from a swing high/low pair.
type Levels struct {
	High  float64
	Low   float64
	Trend Trend

	prices [11]float64 // indexed by Label
}

// DeriveLevels computes the full level set for the given swing. Retracement
// levels are high - ratio*diff, extensions project 0.618 and 1.618 of the
// swing range below the low and above the high.
func DeriveLevels(high, low float64, trend Trend) *Levels {
	diff := high - low
	l := &Levels{High: high, Low: low, Trend: trend}
	for i, ratio := range RetracementRatios {
		l.prices[i] = high - ratio*diff
	}
	l.prices[Label1618] = low - 0.618*diff
	l.prices[Label2618] = low - 1.618*diff
	l.prices[LabelUp1618] = high + 0.618*diff
	l.prices[LabelUp2618] = high + 1.618*diff
	return l
}

// Entry is one labeled level of a set, used for display and reporting.
type Entry struct {
	Label Label
	Price float64
}

// Ladder returns all eleven levels in enumeration order, retracements
// first, then the downward and upward extensions. Nil when the set is nil.
func (l *Levels) Ladder() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.prices))
	for i := range l.prices {
		out[i] = Entry{Label: Label(i), Price: l.prices[i]}
	}
	return out
}

// Price returns the price of the given level.
func (l *Levels) Price(label Label) float64 {
	if l == nil || label < Label0 || label > LabelUp2618 {
		return 0
	}
	return l.prices[label]
}

// IsNear reports whether price falls within a ±threshold fractional band
// around the retracement level named by ratio. Fails closed when the level
// set is nil or the ratio is not one of the seven retracement ratios.
func (l *Levels) IsNear(price, ratio, threshold float64) bool {
	if l == nil {
		return false
	}
	for i, r := range RetracementRatios {
		if r == ratio {
			level := l.prices[i]
			return price >= level*(1-threshold) && price <= level*(1+threshold)
		}
	}
	return false
}

// Closest returns the label whose price is nearest to the given price,
// searching the seven retracement levels and the two downward extensions.
// Returns false when the level set is nil.
func (l *Levels) Closest(price float64) (Label, bool) {
	if l == nil {
		return 0, false
	}
	best := closestLabels[0]
	minDist := abs(price - l.prices[best])
	for _, label := range closestLabels[1:] {
		if d := abs(price - l.prices[label]); d < minDist {
			minDist = d
			best = label
		}
	}
	return best, true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
