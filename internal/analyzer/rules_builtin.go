package analyzer

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/stock-advisor/pkg/indicator"
)

// Core rule weights. Together they cover the full comprehensive score.
const (
	technicalWeight   = 0.40
	fundamentalWeight = 0.40
	sentimentWeight   = 0.20
)

// RegisterDefaults registers the built-in rule set on the registry: the three
// weighted core rules plus the weight-zero sector overlays.
func RegisterDefaults(registry *Registry) error {
	rules := []Rule{
		&TechnicalRule{},
		&FundamentalRule{},
		&SentimentRule{},
		newSectorRule("sector_tech", "Technology sector", []string{"tech", "software", "semiconductor", "internet", "chip"}),
		newSectorRule("sector_finance", "Financial sector", []string{"bank", "insurance", "securities", "finance"}),
		newSectorRule("sector_consumer", "Consumer sector", []string{"consumer", "retail", "food", "beverage", "liquor"}),
	}
	for _, rule := range rules {
		if err := registry.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// TechnicalRule scores price action: trend alignment, momentum, mean
// reversion and volume confirmation.
type TechnicalRule struct{}

func (r *TechnicalRule) ID() string   { return "technical" }
func (r *TechnicalRule) Name() string { return "Technical analysis" }
func (r *TechnicalRule) Description() string {
	return "Scores moving-average alignment, RSI, MACD, Bollinger position and volume"
}
func (r *TechnicalRule) Weight() float64 { return technicalWeight }

func (r *TechnicalRule) Evaluate(ctx *RuleContext) (Outcome, error) {
	tech := ctx.Technical
	if tech == nil {
		return Outcome{Score: 50, Details: "no technical data"}, nil
	}

	score := 50.0
	var notes []string

	switch tech.MATrend {
	case indicator.TrendBullish:
		score += 15
		notes = append(notes, "bullish MA alignment")
	case indicator.TrendBearish:
		score -= 15
		notes = append(notes, "bearish MA alignment")
	}

	switch {
	case tech.RSI < 30:
		score += 10
		notes = append(notes, fmt.Sprintf("RSI oversold (%.1f)", tech.RSI))
	case tech.RSI > 70:
		score -= 10
		notes = append(notes, fmt.Sprintf("RSI overbought (%.1f)", tech.RSI))
	case tech.RSI >= 50:
		score += 5
	}

	switch tech.MACDSignal {
	case indicator.MACDGoldenCross:
		score += 15
		notes = append(notes, "MACD golden cross")
	case indicator.MACDDeadCross:
		score -= 15
		notes = append(notes, "MACD dead cross")
	}

	switch {
	case tech.BBPosition < 0.2:
		score += 5
		notes = append(notes, "near lower Bollinger band")
	case tech.BBPosition > 0.8:
		score -= 5
		notes = append(notes, "near upper Bollinger band")
	}

	switch tech.VolumeStatus {
	case indicator.VolumeSurgeUp:
		score += 10
		notes = append(notes, "volume surge on up move")
	case indicator.VolumeSurgeDown:
		score -= 10
		notes = append(notes, "volume surge on down move")
	case indicator.VolumeShrinking:
		score -= 5
	}

	if len(notes) == 0 {
		notes = append(notes, "no strong technical signals")
	}
	return Outcome{Score: clampScore(score), Details: strings.Join(notes, "; ")}, nil
}

// FundamentalRule scores valuation and quality indicators.
type FundamentalRule struct{}

func (r *FundamentalRule) ID() string   { return "fundamental" }
func (r *FundamentalRule) Name() string { return "Fundamental analysis" }
func (r *FundamentalRule) Description() string {
	return "Scores profitability, valuation, leverage and growth"
}
func (r *FundamentalRule) Weight() float64 { return fundamentalWeight }

func (r *FundamentalRule) Evaluate(ctx *RuleContext) (Outcome, error) {
	fund := ctx.Fundamentals
	if fund == nil || len(fund.Indicators) == 0 {
		return Outcome{Score: 50, Details: "no fundamental data"}, nil
	}

	score := 50.0
	var notes []string

	if roe, ok := fund.Indicators["roe"]; ok {
		switch {
		case roe >= 15:
			score += 15
			notes = append(notes, fmt.Sprintf("strong ROE %.1f%%", roe))
		case roe >= 8:
			score += 8
		case roe < 0:
			score -= 15
			notes = append(notes, fmt.Sprintf("negative ROE %.1f%%", roe))
		}
	}

	if pe, ok := fund.Indicators["pe_ratio"]; ok {
		switch {
		case pe > 0 && pe < 15:
			score += 10
			notes = append(notes, fmt.Sprintf("low PE %.1f", pe))
		case pe > 60 || pe <= 0:
			score -= 10
			notes = append(notes, fmt.Sprintf("stretched PE %.1f", pe))
		}
	}

	if debt, ok := fund.Indicators["debt_ratio"]; ok {
		switch {
		case debt < 40:
			score += 5
		case debt > 70:
			score -= 10
			notes = append(notes, fmt.Sprintf("high debt ratio %.1f%%", debt))
		}
	}

	if growth, ok := fund.Indicators["revenue_growth"]; ok {
		switch {
		case growth >= 20:
			score += 10
			notes = append(notes, fmt.Sprintf("revenue growth %.1f%%", growth))
		case growth < 0:
			score -= 10
			notes = append(notes, fmt.Sprintf("revenue decline %.1f%%", growth))
		}
	}

	if len(notes) == 0 {
		notes = append(notes, "fundamentals broadly neutral")
	}
	return Outcome{Score: clampScore(score), Details: strings.Join(notes, "; ")}, nil
}

// SentimentRule scores aggregated news and announcement sentiment, weighted
// down when source confidence is low.
type SentimentRule struct{}

func (r *SentimentRule) ID() string   { return "sentiment" }
func (r *SentimentRule) Name() string { return "Sentiment analysis" }
func (r *SentimentRule) Description() string {
	return "Scores aggregated news sentiment scaled by its confidence"
}
func (r *SentimentRule) Weight() float64 { return sentimentWeight }

func (r *SentimentRule) Evaluate(ctx *RuleContext) (Outcome, error) {
	sent := ctx.Sentiment
	if sent == nil || sent.TotalAnalyzed == 0 {
		return Outcome{Score: 50, Details: "no sentiment data"}, nil
	}

	// Overall is in [-1, 1]; map to [0, 100] and pull toward neutral when
	// confidence is low.
	confidence := clampScore(sent.Confidence*100) / 100
	score := 50 + sent.Overall*50*confidence

	return Outcome{
		Score: clampScore(score),
		Details: fmt.Sprintf("sentiment %.2f over %d items (confidence %.2f)",
			sent.Overall, sent.TotalAnalyzed, sent.Confidence),
	}, nil
}

// sectorRule is a weight-zero overlay that flags sector membership by
// industry or name keywords. It informs the report without moving the score.
type sectorRule struct {
	id       string
	name     string
	keywords []string
}

func newSectorRule(id, name string, keywords []string) *sectorRule {
	return &sectorRule{id: id, name: name, keywords: keywords}
}

func (r *sectorRule) ID() string   { return r.id }
func (r *sectorRule) Name() string { return r.name }
func (r *sectorRule) Description() string {
	return "Flags " + strings.ToLower(r.name) + " membership; informational only"
}
func (r *sectorRule) Weight() float64 { return 0 }

func (r *sectorRule) Evaluate(ctx *RuleContext) (Outcome, error) {
	haystack := strings.ToLower(ctx.Name)
	if ctx.Fundamentals != nil {
		haystack += " " + strings.ToLower(ctx.Fundamentals.Industry)
	}
	for _, keyword := range r.keywords {
		if strings.Contains(haystack, keyword) {
			return Outcome{Score: 60, Details: "matched sector keyword: " + keyword}, nil
		}
	}
	return Outcome{Score: 50, Details: "not in sector"}, nil
}
