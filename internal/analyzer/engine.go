package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/quote"
	"github.com/mohamedkhairy/stock-advisor/pkg/indicator"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

// neutralScore is used when no weighted rule contributed to a report.
const neutralScore = 50.0

// Market identifiers inferred from symbol shape.
const (
	MarketAShare = "a_stock"
	MarketHK     = "hk_stock"
	MarketUS     = "us_stock"
)

var (
	aSharePattern = regexp.MustCompile(`^\d{6}$`)
	hkPattern     = regexp.MustCompile(`^(HK)?\d{4,5}$`)
	usPattern     = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

type marketInfo struct {
	label    string
	currency string
}

var marketTable = map[string]marketInfo{
	MarketAShare: {label: "A-Share", currency: "CNY"},
	MarketHK:     {label: "Hong Kong", currency: "HKD"},
	MarketUS:     {label: "United States", currency: "USD"},
}

// Engine analyzes instruments by running scoring rules over provider
// snapshots and aggregating the weighted results into a recommendation.
type Engine struct {
	registry *Registry
	provider quote.Provider
	ladder   Ladder
	now      func() time.Time
}

// NewEngine creates an analysis engine. The ladder must validate; static
// wiring failures panic at start-up rather than surfacing per-request.
func NewEngine(registry *Registry, provider quote.Provider, ladder Ladder) (*Engine, error) {
	if err := ladder.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{
		registry: registry,
		provider: provider,
		ladder:   ladder,
		now:      time.Now,
	}, nil
}

// Registry returns the engine's rule registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Analyze produces a report for one instrument. An empty ruleIDs selects all
// core rules. Missing market data yields a degraded report, not an error;
// errors are reserved for invalid input and cancellation.
func (e *Engine) Analyze(ctx context.Context, symbol string, ruleIDs []string) (*models.AnalysisReport, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rules, err := e.registry.Select(ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}

	market := detectMarket(symbol)
	info := marketTable[market]
	report := &models.AnalysisReport{
		Symbol:      symbol,
		Name:        symbol,
		Market:      market,
		MarketLabel: info.label,
		Currency:    info.currency,
		AnalyzedAt:  e.now(),
		RuleResults: make(map[string]*models.RuleResult, len(rules)),
	}

	snapshot, err := e.provider.Snapshot(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		report.Error = fmt.Sprintf("market data unavailable: %v", err)
		report.Recommendation = models.RecommendHold
		logger.AnalysesTotal.WithLabelValues("degraded").Inc()
		logger.Warn("Analysis degraded",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
		return report, nil
	}

	if snapshot.Name != "" {
		report.Name = snapshot.Name
	}

	ruleCtx := &RuleContext{
		Symbol:       symbol,
		Name:         report.Name,
		Market:       market,
		Quote:        snapshot.Quote,
		Technical:    indicator.Compute(snapshot.Bars),
		Fundamentals: snapshot.Fundamentals,
		Sentiment:    snapshot.Sentiment,
	}

	if snapshot.Quote != nil {
		report.Price = models.PriceInfo{
			CurrentPrice:   snapshot.Quote.CurrentPrice,
			PriceChange:    snapshot.Quote.ChangePct,
			VolumeRatio:    snapshot.Quote.VolumeRatio,
			TotalMarketCap: snapshot.Quote.TotalMarketCap,
		}
	} else {
		report.Price = models.PriceInfo{
			CurrentPrice: ruleCtx.Technical.CurrentPrice,
			PriceChange:  ruleCtx.Technical.PriceChange,
			VolumeRatio:  ruleCtx.Technical.VolumeRatio,
		}
	}

	report.Technical = &models.TechnicalInfo{
		MATrend:      ruleCtx.Technical.MATrend,
		RSI:          ruleCtx.Technical.RSI,
		MACDSignal:   ruleCtx.Technical.MACDSignal,
		BBPosition:   ruleCtx.Technical.BBPosition,
		VolumeStatus: ruleCtx.Technical.VolumeStatus,
	}

	var weightedSum, weightSum float64
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := e.runRule(rule, ruleCtx)
		report.RuleResults[rule.ID()] = result
		report.ActiveRules = append(report.ActiveRules, rule.ID())
		if result.Weight > 0 {
			weightedSum += result.Score * result.Weight
			weightSum += result.Weight
		}
	}

	if weightSum > 0 {
		report.ComprehensiveScore = weightedSum / weightSum
	} else {
		report.ComprehensiveScore = neutralScore
	}
	report.Recommendation = e.ladder.Classify(report.ComprehensiveScore)

	logger.AnalysesTotal.WithLabelValues(string(report.Recommendation)).Inc()
	logger.Debug("Analysis completed",
		logger.String("symbol", symbol),
		logger.Float64("score", report.ComprehensiveScore),
		logger.String("recommendation", string(report.Recommendation)),
		logger.Int("rules", len(rules)),
	)

	return report, nil
}

// runRule evaluates one rule, isolating errors and panics: a faulted rule
// contributes a zero score with a diagnostic and never aborts the analysis.
func (e *Engine) runRule(rule Rule, ruleCtx *RuleContext) (result *models.RuleResult) {
	result = &models.RuleResult{
		RuleID: rule.ID(),
		Name:   rule.Name(),
		Weight: rule.Weight(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Score = 0
			result.Details = fmt.Sprintf("rule panicked: %v", r)
			logger.RuleEvaluationsTotal.WithLabelValues(rule.ID(), "panic").Inc()
			logger.Error("Rule panicked",
				logger.String("rule_id", rule.ID()),
				logger.String("symbol", ruleCtx.Symbol),
				logger.Any("panic", r),
			)
		}
	}()

	outcome, err := rule.Evaluate(ruleCtx)
	if err != nil {
		result.Score = 0
		result.Details = fmt.Sprintf("rule failed: %v", err)
		logger.RuleEvaluationsTotal.WithLabelValues(rule.ID(), "error").Inc()
		logger.Warn("Rule failed",
			logger.String("rule_id", rule.ID()),
			logger.String("symbol", ruleCtx.Symbol),
			logger.ErrorField(err),
		)
		return result
	}

	result.Score = clampScore(outcome.Score)
	result.Details = outcome.Details
	logger.RuleEvaluationsTotal.WithLabelValues(rule.ID(), "ok").Inc()
	return result
}

// detectMarket classifies a symbol by shape, defaulting to A-share.
func detectMarket(symbol string) string {
	upper := strings.ToUpper(symbol)
	switch {
	case aSharePattern.MatchString(symbol):
		return MarketAShare
	case hkPattern.MatchString(upper):
		return MarketHK
	case usPattern.MatchString(upper):
		return MarketUS
	default:
		return MarketAShare
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
