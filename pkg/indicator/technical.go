package indicator

import (
	"math"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// Moving-average alignment labels.
const (
	TrendBullish  = "bullish_alignment"
	TrendBearish  = "bearish_alignment"
	TrendSideways = "sideways"
	TrendUnknown  = "insufficient_data"
)

// MACD histogram cross labels.
const (
	MACDGoldenCross = "golden_cross"
	MACDDeadCross   = "dead_cross"
	MACDFlat        = "flat"
	MACDUnknown     = "insufficient_data"
)

// Volume regime labels relative to the 20-day average.
const (
	VolumeSurgeUp   = "surge_up"
	VolumeSurgeDown = "surge_down"
	VolumeShrinking = "shrinking"
	VolumeModerate  = "moderate"
	VolumeUnknown   = "insufficient_data"
)

// TechnicalSummary is the condensed technical picture of one instrument,
// computed over its recent daily bars. Scoring rules consume this instead of
// raw bars.
type TechnicalSummary struct {
	MATrend      string  `json:"ma_trend"`
	RSI          float64 `json:"rsi"`
	MACDSignal   string  `json:"macd_signal"`
	BBPosition   float64 `json:"bb_position"`
	VolumeStatus string  `json:"volume_status"`
	CurrentPrice float64 `json:"current_price"`
	PriceChange  float64 `json:"price_change"`
	VolumeRatio  float64 `json:"volume_ratio"`
}

// Neutral returns the summary used when no usable bars are available.
func Neutral() *TechnicalSummary {
	return &TechnicalSummary{
		MATrend:      TrendUnknown,
		RSI:          50.0,
		MACDSignal:   MACDUnknown,
		BBPosition:   0.5,
		VolumeStatus: VolumeUnknown,
		VolumeRatio:  1.0,
	}
}

// Compute builds a TechnicalSummary from daily bars, oldest first.
// It never fails: with too little data the affected signals fall back to
// their neutral values.
func Compute(bars []models.Bar) *TechnicalSummary {
	if len(bars) == 0 {
		return Neutral()
	}

	series := techan.NewTimeSeries()
	for _, bar := range bars {
		period := techan.NewTimePeriod(bar.Date, 24*time.Hour)
		candle := techan.NewCandle(period)
		candle.OpenPrice = big.NewDecimal(bar.Open)
		candle.MaxPrice = big.NewDecimal(bar.High)
		candle.MinPrice = big.NewDecimal(bar.Low)
		candle.ClosePrice = big.NewDecimal(bar.Close)
		candle.Volume = big.NewDecimal(bar.Volume)
		series.AddCandle(candle)
	}

	last := series.LastIndex()
	closePrice := techan.NewClosePriceIndicator(series)
	price := safe(closePrice.Calculate(last).Float(), 0)

	summary := Neutral()
	summary.CurrentPrice = price
	summary.MATrend = maTrend(closePrice, last, price)
	summary.RSI = rsi(closePrice, last)
	summary.MACDSignal = macdSignal(closePrice, last)
	summary.BBPosition = bollingerPosition(closePrice, last, len(bars), price)

	if len(bars) >= 2 {
		prev := bars[len(bars)-2].Close
		if prev > 0 {
			summary.PriceChange = (price - prev) / prev * 100.0
		}
	}

	summary.VolumeStatus, summary.VolumeRatio = volumeStatus(series, last, len(bars), summary.PriceChange)
	return summary
}

func maTrend(closePrice techan.Indicator, last int, price float64) string {
	if last < 0 {
		return TrendUnknown
	}
	ma5 := safe(techan.NewSimpleMovingAverage(closePrice, 5).Calculate(last).Float(), price)
	ma10 := safe(techan.NewSimpleMovingAverage(closePrice, 10).Calculate(last).Float(), price)
	ma20 := safe(techan.NewSimpleMovingAverage(closePrice, 20).Calculate(last).Float(), price)
	switch {
	case price > ma5 && ma5 > ma10 && ma10 > ma20:
		return TrendBullish
	case price < ma5 && ma5 < ma10 && ma10 < ma20:
		return TrendBearish
	default:
		return TrendSideways
	}
}

func rsi(closePrice techan.Indicator, last int) float64 {
	if last < 1 {
		return 50.0
	}
	value := techan.NewRelativeStrengthIndexIndicator(closePrice, 14).Calculate(last).Float()
	return clamp(safe(value, 50.0), 0, 100)
}

func macdSignal(closePrice techan.Indicator, last int) string {
	if last < 1 {
		return MACDUnknown
	}
	macd := techan.NewMACDIndicator(closePrice, 12, 26)
	hist := techan.NewMACDHistogramIndicator(macd, 9)
	cur := safe(hist.Calculate(last).Float(), 0)
	prev := safe(hist.Calculate(last-1).Float(), 0)
	switch {
	case cur > prev && cur > 0:
		return MACDGoldenCross
	case cur < prev && cur < 0:
		return MACDDeadCross
	default:
		return MACDFlat
	}
}

func bollingerPosition(closePrice techan.Indicator, last, barCount int, price float64) float64 {
	if last < 1 {
		return 0.5
	}
	window := 20
	if barCount < window {
		window = barCount
	}
	upper := safe(techan.NewBollingerUpperBandIndicator(closePrice, window, 2.0).Calculate(last).Float(), price)
	lower := safe(techan.NewBollingerLowerBandIndicator(closePrice, window, 2.0).Calculate(last).Float(), price)
	width := upper - lower
	if width < 1e-10 {
		return 0.5
	}
	return clamp((price-lower)/width, 0, 1)
}

func volumeStatus(series *techan.TimeSeries, last, barCount int, changePct float64) (string, float64) {
	if last < 0 {
		return VolumeUnknown, 1.0
	}
	window := 20
	if barCount < window {
		window = barCount
	}
	volume := techan.NewVolumeIndicator(series)
	avg := safe(techan.NewSimpleMovingAverage(volume, window).Calculate(last).Float(), 0)
	cur := safe(volume.Calculate(last).Float(), 0)

	ratio := 1.0
	if avg > 0 {
		ratio = cur / avg
	}

	switch {
	case cur > avg*1.5 && changePct > 0:
		return VolumeSurgeUp, ratio
	case cur > avg*1.5:
		return VolumeSurgeDown, ratio
	case cur < avg*0.5:
		return VolumeShrinking, ratio
	default:
		return VolumeModerate, ratio
	}
}

func safe(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
