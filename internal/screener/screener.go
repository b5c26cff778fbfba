package screener

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

// Options controls result ordering.
type Options struct {
	// SortByScore sorts matches by total score descending. Ties keep input
	// order. When false, matches are returned in input order.
	SortByScore bool
}

// Result is the outcome of one screening run.
type Result struct {
	Matched []*models.StockRecord `json:"matched"`
	Summary *models.ScreenSummary `json:"summary"`
}

// Screener applies a condition set to batches of stock records.
// Screening is a pure computation: the same records and condition always
// produce the same result, and input records are never mutated.
type Screener struct {
	presets *Catalog
}

// New creates a screener backed by the given preset catalog.
func New(presets *Catalog) *Screener {
	if presets == nil {
		presets = DefaultCatalog()
	}
	return &Screener{presets: presets}
}

// Presets returns the preset catalog.
func (s *Screener) Presets() *Catalog {
	return s.presets
}

// Screen filters records against the condition and computes summary
// statistics over the matched set.
func (s *Screener) Screen(records []*models.StockRecord, cond *models.Condition, opts Options) *Result {
	start := time.Now()
	if cond == nil {
		cond = &models.Condition{}
	}

	matched := make([]*models.StockRecord, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		if match(record, cond) {
			matched = append(matched, record)
		}
	}

	if opts.SortByScore {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].TotalScore > matched[j].TotalScore
		})
	}

	result := &Result{
		Matched: matched,
		Summary: buildSummary(matched),
	}

	logger.ScreensTotal.Inc()
	logger.ScreenDuration.Observe(time.Since(start).Seconds())
	logger.Debug("Screen completed",
		logger.Int("candidates", len(records)),
		logger.Int("matched", len(matched)),
		logger.Duration("duration", time.Since(start)),
	)

	return result
}

// ScreenWithPreset screens using a named preset condition as the base, with
// any fields explicitly set on override replacing the preset's fields.
func (s *Screener) ScreenWithPreset(records []*models.StockRecord, presetKey string, override *models.Condition, opts Options) (*Result, error) {
	preset, err := s.presets.Get(presetKey)
	if err != nil {
		return nil, fmt.Errorf("screen with preset: %w", err)
	}
	return s.Screen(records, preset.Condition.Merge(override), opts), nil
}

// match checks every clause of the condition against one record. Cheap
// scalar bounds and set filters run before the custom rules, short-circuiting
// on the first failing clause.
func match(record *models.StockRecord, cond *models.Condition) bool {
	if !inRange(record.CurrentPrice, cond.PriceMin, cond.PriceMax) {
		return false
	}
	if !inRange(record.TotalScore, cond.TotalScoreMin, cond.TotalScoreMax) {
		return false
	}
	if !inRange(record.TechScore, cond.TechScoreMin, cond.TechScoreMax) {
		return false
	}
	if !inRange(record.AuctionScore, cond.AuctionScoreMin, cond.AuctionScoreMax) {
		return false
	}
	if !inRange(record.AuctionRatio, cond.AuctionRatioMin, cond.AuctionRatioMax) {
		return false
	}
	if !inRange(record.RSI, cond.RSIMin, cond.RSIMax) {
		return false
	}
	if !inRange(record.MarketCapBillion, cond.MarketCapMin, cond.MarketCapMax) {
		return false
	}

	if len(cond.GapTypes) > 0 && !containsString(cond.GapTypes, record.GapType) {
		return false
	}
	if len(cond.ConfidenceLevels) > 0 && !containsString(cond.ConfidenceLevels, record.Confidence) {
		return false
	}
	if len(cond.Markets) > 0 && !containsString(cond.Markets, record.Market) {
		return false
	}

	if keyword := strings.TrimSpace(cond.Keyword); keyword != "" {
		if !strings.Contains(record.Symbol, keyword) && !strings.Contains(record.Name, keyword) {
			return false
		}
	}

	for i := range cond.CustomRules {
		if !EvaluateRule(record, &cond.CustomRules[i]) {
			return false
		}
	}

	return true
}

func inRange(value float64, min, max *float64) bool {
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

const topStockLimit = 5

// buildSummary computes statistics over the matched set only.
func buildSummary(matched []*models.StockRecord) *models.ScreenSummary {
	summary := &models.ScreenSummary{
		Count:     len(matched),
		Markets:   []string{},
		TopStocks: []models.TopStock{},
	}
	if len(matched) == 0 {
		return summary
	}

	var scoreSum float64
	marketSet := make(map[string]struct{})
	summary.PriceMin = matched[0].CurrentPrice
	summary.PriceMax = matched[0].CurrentPrice

	for _, record := range matched {
		scoreSum += record.TotalScore
		if record.Confidence == models.ConfidenceVeryHigh {
			summary.HighConfidenceCount++
		}
		if record.Market != "" {
			marketSet[record.Market] = struct{}{}
		}
		if record.CurrentPrice < summary.PriceMin {
			summary.PriceMin = record.CurrentPrice
		}
		if record.CurrentPrice > summary.PriceMax {
			summary.PriceMax = record.CurrentPrice
		}
	}

	summary.AvgScore = scoreSum / float64(len(matched))

	for market := range marketSet {
		summary.Markets = append(summary.Markets, market)
	}
	sort.Strings(summary.Markets)

	top := make([]*models.StockRecord, len(matched))
	copy(top, matched)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TotalScore > top[j].TotalScore
	})
	if len(top) > topStockLimit {
		top = top[:topStockLimit]
	}
	for _, record := range top {
		summary.TopStocks = append(summary.TopStocks, models.TopStock{
			Symbol:       record.Symbol,
			Name:         record.Name,
			TotalScore:   record.TotalScore,
			CurrentPrice: record.CurrentPrice,
			Confidence:   record.Confidence,
		})
	}

	return summary
}
