// Package market computes technical analysis over candle series and derives
// trading signals.
package market

import (
	"math"
	"strings"
	"time"

	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/risk"
)

// Trend direction labels.
const (
	TrendStrongUp   = "STRONG_UPTREND"
	TrendWeakUp     = "WEAK_UPTREND"
	TrendWeakDown   = "WEAK_DOWNTREND"
	TrendStrongDown = "STRONG_DOWNTREND"
	TrendNeutral    = "NEUTRAL"
)

// Volume trend labels.
const (
	VolumeHigh   = "HIGH"
	VolumeLow    = "LOW"
	VolumeNormal = "NORMAL"
)

const (
	rocPeriod       = 20
	atrPeriod       = 14
	bollingerPeriod = 20
	volumeWindow    = 20
	// analyzerStopPct is the illustrative stop distance used for the risk
	// validation attached to each analysis.
	analyzerStopPct = 0.05
)

// Trend describes the moving-average trend state.
type Trend struct {
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
	ShortMA   float64 `json:"shortMa"`
	LongMA    float64 `json:"longMa"`
}

// Momentum holds momentum indicator values.
type Momentum struct {
	RSI float64 `json:"rsi"`
	ROC float64 `json:"roc"`
}

// Volatility holds volatility metrics.
type Volatility struct {
	Annualized float64 `json:"annualized"`
	ATR        float64 `json:"atr"`
	Bollinger  Bands   `json:"bollingerBands"`
}

// VolumeProfile compares current volume against its recent average.
type VolumeProfile struct {
	Ratio float64 `json:"ratio"`
	Trend string  `json:"trend"`
}

// Analysis is the full result of analyzing a candle series.
type Analysis struct {
	Trend      Trend           `json:"trend"`
	Momentum   Momentum        `json:"momentum"`
	Volatility Volatility      `json:"volatility"`
	Volume     VolumeProfile   `json:"volume"`
	Signal     domain.Signal   `json:"signal"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
	Risk       risk.Validation `json:"risk"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Analyzer computes market analysis over candle series.
type Analyzer struct {
	cfg  config.AnalyzerConfig
	risk *risk.Manager
	log  *logging.Logger
}

// NewAnalyzer creates an analyzer. The risk manager validates an illustrative
// trade at the last close for every analysis.
func NewAnalyzer(cfg config.AnalyzerConfig, rm *risk.Manager, log *logging.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, risk: rm, log: log.Sub("market")}
}

// Analyze runs trend, momentum, volatility, and volume analysis over the
// series and derives a signal. Series shorter than MinDataPoints produce a
// NEUTRAL result with zero confidence.
func (a *Analyzer) Analyze(series domain.Series) Analysis {
	now := time.Now()

	if len(series) < a.cfg.MinDataPoints {
		a.log.Warn().Int("bars", len(series)).Msg("insufficient data points for analysis")
		return Analysis{
			Signal:    domain.SignalNeutral,
			Reason:    "insufficient data",
			Timestamp: now,
			Trend:     Trend{Direction: TrendNeutral},
			Volume:    VolumeProfile{Trend: VolumeNormal},
		}
	}

	closes := series.Closes()

	analysis := Analysis{
		Trend:      a.analyzeTrend(closes),
		Momentum:   a.analyzeMomentum(closes),
		Volatility: a.analyzeVolatility(series),
		Volume:     analyzeVolume(series.Volumes()),
		Timestamp:  now,
	}

	analysis.Signal, analysis.Confidence = deriveSignal(analysis)

	if a.risk != nil {
		lastClose := series.Last().Close
		analysis.Risk = a.risk.ValidateTrade(risk.TradeParams{
			AccountBalance: a.risk.CurrentBalance(),
			EntryPrice:     lastClose,
			StopLoss:       lastClose * (1 - analyzerStopPct),
		})
	}

	a.log.Debug().
		Str("signal", string(analysis.Signal)).
		Float64("confidence", analysis.Confidence).
		Str("trend", analysis.Trend.Direction).
		Msg("analysis complete")

	return analysis
}

func (a *Analyzer) analyzeTrend(closes []float64) Trend {
	short, okShort := SMA(closes, a.cfg.ShortMAPeriod)
	long, okLong := SMA(closes, a.cfg.LongMAPeriod)
	if !okShort || !okLong || long == 0 {
		return Trend{Direction: TrendNeutral}
	}

	strength := (short - long) / long * 100

	var direction string
	switch {
	case strength > 1:
		direction = TrendStrongUp
	case strength > 0:
		direction = TrendWeakUp
	case strength > -1:
		direction = TrendWeakDown
	default:
		direction = TrendStrongDown
	}

	if strength < 0 {
		strength = -strength
	}
	return Trend{Direction: direction, Strength: strength, ShortMA: short, LongMA: long}
}

func (a *Analyzer) analyzeMomentum(closes []float64) Momentum {
	var m Momentum
	if rsi, ok := RSI(closes, a.cfg.RSIPeriod); ok {
		m.RSI = rsi
	}
	if roc, ok := ROC(closes, rocPeriod); ok {
		m.ROC = roc
	}
	return m
}

func (a *Analyzer) analyzeVolatility(series domain.Series) Volatility {
	closes := series.Closes()
	highs := make([]float64, len(series))
	lows := make([]float64, len(series))
	for i, c := range series {
		highs[i] = c.High
		lows[i] = c.Low
	}

	v := Volatility{Annualized: AnnualizedVolatility(closes)}
	if atr, ok := ATR(highs, lows, closes, atrPeriod); ok {
		v.ATR = atr
	}
	if bands, ok := Bollinger(closes, bollingerPeriod); ok {
		v.Bollinger = bands
	}
	return v
}

func analyzeVolume(volumes []float64) VolumeProfile {
	window := volumes
	if len(window) > volumeWindow {
		window = window[len(window)-volumeWindow:]
	}
	avg := mean(window)
	if avg == 0 {
		return VolumeProfile{Trend: VolumeNormal}
	}

	ratio := volumes[len(volumes)-1] / avg
	trend := VolumeNormal
	switch {
	case ratio > 1.5:
		trend = VolumeHigh
	case ratio < 0.5:
		trend = VolumeLow
	}
	return VolumeProfile{Ratio: ratio, Trend: trend}
}

// deriveSignal turns trend, momentum, and volume into a signal with
// confidence. Confidence scales with trend strength and is boosted by volume
// up to 2x, capped at 1.
func deriveSignal(a Analysis) (domain.Signal, float64) {
	signal := domain.SignalNeutral
	confidence := 0.0

	switch {
	case strings.HasSuffix(a.Trend.Direction, "UPTREND") && a.Momentum.RSI < 70:
		signal = domain.SignalBuy
		confidence = a.Trend.Strength * 0.01
	case strings.HasSuffix(a.Trend.Direction, "DOWNTREND") && a.Momentum.RSI > 30:
		signal = domain.SignalSell
		// strength is negative in a downtrend; confidence measures magnitude
		confidence = math.Abs(a.Trend.Strength) * 0.01
	}

	boost := a.Volume.Ratio
	if boost > 2 {
		boost = 2
	}
	confidence *= boost
	if confidence > 1 {
		confidence = 1
	}
	return signal, confidence
}
