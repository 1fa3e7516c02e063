package market

import "math"

// SMA computes a simple moving average over the trailing window ending at the
// last element. Returns 0 and false when there are fewer than period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// RSI computes the relative strength index over the last period deltas.
// A window with no losses saturates at 100.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var gains, losses float64
	deltas := prices[len(prices)-period-1:]
	for i := 1; i < len(deltas); i++ {
		d := deltas[i] - deltas[i-1]
		if d > 0 {
			gains += d
		} else {
			losses += -d
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// ROC computes the percent rate of change between the last price and the one
// period bars before it.
func ROC(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	base := prices[len(prices)-period]
	if base == 0 {
		return 0, false
	}
	return (prices[len(prices)-1]/base - 1) * 100, true
}

// ATR computes the average true range over the last period bars.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, false
	}

	var sum float64
	for i := n - period; i < n; i++ {
		tr := math.Max(
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])),
			highs[i]-lows[i],
		)
		sum += tr
	}
	return sum / float64(period), true
}

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes 2-sigma Bollinger bands around the period SMA.
func Bollinger(prices []float64, period int) (Bands, bool) {
	mid, ok := SMA(prices, period)
	if !ok {
		return Bands{}, false
	}
	sd := stddev(prices[len(prices)-period:])
	return Bands{
		Upper:  mid + 2*sd,
		Middle: mid,
		Lower:  mid - 2*sd,
	}, true
}

// AnnualizedVolatility computes the stddev of log returns scaled to 252
// trading days.
func AnnualizedVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return stddev(returns) * math.Sqrt(252)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
