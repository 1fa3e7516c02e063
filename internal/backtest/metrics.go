package backtest

import (
	"math"
	"sort"
)

const (
	riskFreeRate = 0.02
	tradingDays  = 252
)

// sharpeRatio computes the annualized Sharpe ratio over per-trade percent
// returns. Empty or zero-variance inputs yield 0.
func sharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	excess := excessReturns(returns)
	sd := stddev(excess)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd * math.Sqrt(tradingDays)
}

// sortinoRatio computes the annualized Sortino ratio, penalizing only
// downside deviation. With no downside returns the ratio is +Inf.
func sortinoRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	excess := excessReturns(returns)

	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := stddev(downside)
	if sd == 0 {
		return math.Inf(1)
	}
	return mean(excess) / sd * math.Sqrt(tradingDays)
}

// valueAtRisk computes the historical VaR at the given confidence level
// (e.g. 0.95 returns the 5th percentile of returns).
func valueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return percentile(returns, (1-confidence)*100)
}

// expectedShortfall computes the mean return at or below the VaR cutoff
// (conditional VaR).
func expectedShortfall(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cutoff := valueAtRisk(returns, confidence)
	var tail []float64
	for _, r := range returns {
		if r <= cutoff {
			tail = append(tail, r)
		}
	}
	return mean(tail)
}

func excessReturns(returns []float64) []float64 {
	daily := riskFreeRate / tradingDays
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - daily
	}
	return out
}

// percentile computes the p-th percentile with linear interpolation between
// closest ranks.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
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
