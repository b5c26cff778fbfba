package models

import (
	"math"
	"time"
)

// Recommendation is the discrete band a comprehensive score maps to.
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "strong_buy"
	RecommendBuy       Recommendation = "buy"
	RecommendHold      Recommendation = "hold"
	RecommendReduce    Recommendation = "reduce"
	RecommendSell      Recommendation = "sell"
)

// RuleResult is the outcome of one scoring rule for one instrument.
// Score is in [0, 100]. Weight-zero results are informational overlays that
// do not feed the comprehensive score.
type RuleResult struct {
	RuleID  string  `json:"rule_id"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
	Details string  `json:"details"`
}

// PriceInfo is the price snapshot embedded in a report. TotalMarketCap is in
// base currency units.
type PriceInfo struct {
	CurrentPrice   float64 `json:"current_price"`
	PriceChange    float64 `json:"price_change"`
	VolumeRatio    float64 `json:"volume_ratio"`
	TotalMarketCap float64 `json:"total_market_cap,omitempty"`
}

// TechnicalInfo is the condensed technical section of a report.
type TechnicalInfo struct {
	MATrend      string  `json:"ma_trend"`
	RSI          float64 `json:"rsi"`
	MACDSignal   string  `json:"macd_signal"`
	BBPosition   float64 `json:"bb_position"`
	VolumeStatus string  `json:"volume_status"`
}

// AnalysisReport is the immutable result of analyzing one instrument.
// A degraded report (no usable market data) carries only identity, a zero
// score and the Error field.
type AnalysisReport struct {
	Symbol             string                 `json:"stock_code"`
	Name               string                 `json:"stock_name"`
	Market             string                 `json:"market"`
	MarketLabel        string                 `json:"market_label"`
	Currency           string                 `json:"currency"`
	AnalyzedAt         time.Time              `json:"analysis_date"`
	Price              PriceInfo              `json:"price_info"`
	Technical          *TechnicalInfo         `json:"technical,omitempty"`
	RuleResults        map[string]*RuleResult `json:"rule_results"`
	ComprehensiveScore float64                `json:"comprehensive_score"`
	Recommendation     Recommendation         `json:"recommendation"`
	ActiveRules        []string               `json:"active_rules"`
	Error              string                 `json:"error,omitempty"`
}

// Degraded reports whether the report carries an error instead of scores.
func (r *AnalysisReport) Degraded() bool {
	return r.Error != ""
}

// RecordFromReport converts a completed analysis report into a screening
// candidate row. Scores are rescaled from [0,100] to the [0,1] scale the
// screener conditions use.
func RecordFromReport(r *AnalysisReport) *StockRecord {
	rec := &StockRecord{
		Symbol:       r.Symbol,
		Name:         r.Name,
		Market:       r.Market,
		CurrentPrice: r.Price.CurrentPrice,
		TotalScore:   round4(r.ComprehensiveScore / 100.0),
		Confidence:   confidenceForScore(r.ComprehensiveScore),
		GapType:      gapForChange(r.Price.PriceChange),
	}
	if tech, ok := r.RuleResults["technical"]; ok {
		rec.TechScore = round4(tech.Score / 100.0)
	}
	if auction, ok := r.RuleResults["sentiment"]; ok {
		rec.AuctionScore = round4(auction.Score / 100.0)
	}
	rec.AuctionRatio = r.Price.PriceChange
	if r.Technical != nil {
		rec.RSI = round4(r.Technical.RSI)
	}
	// Market cap is stored in hundred-million units to match the scale the
	// screening conditions use.
	if r.Price.TotalMarketCap > 0 {
		rec.MarketCapBillion = round4(r.Price.TotalMarketCap / 1e8)
	}
	applyTradePlan(rec)
	return rec
}

// applyTradePlan fills the suggested strategy and entry/stop/target prices.
// The stop and target widen with confidence; entries sit 1% above the last
// price to avoid chasing a stale quote.
func applyTradePlan(rec *StockRecord) {
	if rec.CurrentPrice <= 0 {
		return
	}

	var stopMult, targetMult float64
	switch rec.Confidence {
	case ConfidenceVeryHigh:
		stopMult, targetMult = 0.94, 1.12
	case ConfidenceHigh:
		stopMult, targetMult = 0.95, 1.08
	default:
		stopMult, targetMult = 0.96, 1.06
	}

	rec.EntryPrice = round2(rec.CurrentPrice * 1.01)
	rec.StopLoss = round2(rec.CurrentPrice * stopMult)
	rec.TargetPrice = round2(rec.CurrentPrice * targetMult)
	rec.Strategy = strategyFor(rec)
}

func strategyFor(rec *StockRecord) string {
	switch {
	case rec.GapType == GapUp && rec.TotalScore > 0.7:
		if rec.CurrentPrice <= 10 {
			return "low-price gap momentum, enter on pullback"
		}
		return "gap-up momentum, follow with trailing stop"
	case rec.GapType == GapFlat && rec.TotalScore > 0.7:
		return "flat open accumulation, build position gradually"
	default:
		return "cautious observation, wait for confirmation"
	}
}

func confidenceForScore(score float64) string {
	switch {
	case score >= 80:
		return ConfidenceVeryHigh
	case score >= 65:
		return ConfidenceHigh
	case score >= 45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func gapForChange(changePct float64) string {
	switch {
	case changePct >= 1.0:
		return GapUp
	case changePct <= -1.0:
		return GapDown
	default:
		return GapFlat
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
