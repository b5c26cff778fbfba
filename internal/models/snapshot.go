package models

import "time"

// Quote is one real-time quote row for an instrument.
type Quote struct {
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	CurrentPrice   float64   `json:"current_price"`
	ChangePct      float64   `json:"change_pct"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	PrevClose      float64   `json:"prev_close"`
	Volume         float64   `json:"volume"`
	Turnover       float64   `json:"turnover"`
	VolumeRatio    float64   `json:"volume_ratio"`
	TurnoverRate   float64   `json:"turnover_rate"`
	PERatio        float64   `json:"pe_ratio"`
	PBRatio        float64   `json:"pb_ratio"`
	TotalMarketCap float64   `json:"total_market_cap"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate validates a Bar.
func (b *Bar) Validate() error {
	if b.High < b.Low {
		return ErrDataUnavailable
	}
	return nil
}

// Fundamentals holds the fundamental data a provider could resolve for an
// instrument. Indicators is keyed by canonical names (roe, pe_ratio,
// debt_ratio, revenue_growth, ...). Any section may be missing.
type Fundamentals struct {
	Indicators   map[string]float64 `json:"indicators,omitempty"`
	Industry     string             `json:"industry,omitempty"`
	HasValuation bool               `json:"has_valuation,omitempty"`
	HasForecast  bool               `json:"has_forecast,omitempty"`
}

// Sentiment holds aggregated news/announcement sentiment for an instrument.
// Overall is in [-1, 1]; Confidence in [0, 1].
type Sentiment struct {
	Overall       float64 `json:"overall_sentiment"`
	Confidence    float64 `json:"confidence_score"`
	TotalAnalyzed int     `json:"total_analyzed"`
	Trend         string  `json:"sentiment_trend,omitempty"`
}

// InstrumentSnapshot is everything a data provider could resolve for one
// instrument at a point in time. Partial snapshots are valid: any section may
// be nil or empty and consumers degrade accordingly.
type InstrumentSnapshot struct {
	Symbol       string        `json:"symbol"`
	Name         string        `json:"name"`
	Quote        *Quote        `json:"quote,omitempty"`
	Bars         []Bar         `json:"bars,omitempty"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	Sentiment    *Sentiment    `json:"sentiment,omitempty"`
}
