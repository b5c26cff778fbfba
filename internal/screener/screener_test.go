package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

func sampleRecords() []*models.StockRecord {
	return []*models.StockRecord{
		{Symbol: "A", Name: "Alpha Tech", CurrentPrice: 10, TotalScore: 80, Confidence: models.ConfidenceVeryHigh, Market: "main"},
		{Symbol: "B", Name: "Beta Bank", CurrentPrice: 20, TotalScore: 40, Confidence: models.ConfidenceLow, Market: "chinext"},
	}
}

func TestScreen_EmptyConditionReturnsInputOrder(t *testing.T) {
	s := New(nil)
	records := sampleRecords()

	result := s.Screen(records, &models.Condition{}, Options{})

	require.Len(t, result.Matched, 2)
	assert.Equal(t, "A", result.Matched[0].Symbol)
	assert.Equal(t, "B", result.Matched[1].Symbol)
}

func TestScreen_NilConditionMatchesEverything(t *testing.T) {
	s := New(nil)

	result := s.Screen(sampleRecords(), nil, Options{})

	assert.Len(t, result.Matched, 2)
}

func TestScreen_PriceMinFilters(t *testing.T) {
	s := New(nil)
	cond := &models.Condition{PriceMin: models.Float64Ptr(15)}

	result := s.Screen(sampleRecords(), cond, Options{})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "B", result.Matched[0].Symbol)
	assert.Equal(t, 1, result.Summary.Count)
}

func TestScreen_ReportCandidatesMatchRSIAndMarketCapBounds(t *testing.T) {
	s := New(nil)

	oversold := models.RecordFromReport(&models.AnalysisReport{
		Symbol:             "000001",
		Market:             "a_stock",
		Price:              models.PriceInfo{CurrentPrice: 9.5, TotalMarketCap: 80e8},
		Technical:          &models.TechnicalInfo{RSI: 27.0},
		ComprehensiveScore: 68,
	})
	overbought := models.RecordFromReport(&models.AnalysisReport{
		Symbol:             "600519",
		Market:             "a_stock",
		Price:              models.PriceInfo{CurrentPrice: 1500, TotalMarketCap: 21000e8},
		Technical:          &models.TechnicalInfo{RSI: 74.0},
		ComprehensiveScore: 82,
	})

	cond := &models.Condition{
		RSIMax:       models.Float64Ptr(30),
		MarketCapMax: models.Float64Ptr(200),
	}
	result := s.Screen([]*models.StockRecord{oversold, overbought}, cond, Options{})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "000001", result.Matched[0].Symbol)
	assert.InDelta(t, 27.0, result.Matched[0].RSI, 1e-9)
	assert.InDelta(t, 80.0, result.Matched[0].MarketCapBillion, 1e-9)
}

func TestScreen_CustomRuleGTE(t *testing.T) {
	s := New(nil)
	cond := &models.Condition{
		CustomRules: []models.CustomRule{
			{Field: "total_score", Operator: models.OpGTE, Value: 60},
		},
	}

	result := s.Screen(sampleRecords(), cond, Options{})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "A", result.Matched[0].Symbol)
}

func TestScreen_UnknownFieldRuleMatchesNothing(t *testing.T) {
	s := New(nil)
	cond := &models.Condition{
		CustomRules: []models.CustomRule{
			{Field: "no_such_field", Operator: models.OpGT, Value: 1},
		},
	}

	result := s.Screen(sampleRecords(), cond, Options{})

	assert.Empty(t, result.Matched)
	assert.Equal(t, 0, result.Summary.Count)
}

func TestScreen_Idempotent(t *testing.T) {
	s := New(nil)
	records := sampleRecords()
	cond := &models.Condition{TotalScoreMin: models.Float64Ptr(50)}

	first := s.Screen(records, cond, Options{})
	second := s.Screen(records, cond, Options{})

	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestScreen_TighteningBoundNeverGrowsMatchSet(t *testing.T) {
	s := New(nil)
	records := []*models.StockRecord{
		{Symbol: "A", CurrentPrice: 5},
		{Symbol: "B", CurrentPrice: 10},
		{Symbol: "C", CurrentPrice: 15},
		{Symbol: "D", CurrentPrice: 20},
	}

	prev := len(records) + 1
	for _, min := range []float64{0, 5, 10, 15, 20, 25} {
		cond := &models.Condition{PriceMin: models.Float64Ptr(min)}
		matched := len(s.Screen(records, cond, Options{}).Matched)
		assert.LessOrEqual(t, matched, prev, "price_min=%v", min)
		prev = matched
	}
}

func TestScreen_SortByScoreStableTies(t *testing.T) {
	s := New(nil)
	records := []*models.StockRecord{
		{Symbol: "A", TotalScore: 0.5},
		{Symbol: "B", TotalScore: 0.9},
		{Symbol: "C", TotalScore: 0.5},
	}

	result := s.Screen(records, nil, Options{SortByScore: true})

	require.Len(t, result.Matched, 3)
	assert.Equal(t, "B", result.Matched[0].Symbol)
	// Equal scores keep input order.
	assert.Equal(t, "A", result.Matched[1].Symbol)
	assert.Equal(t, "C", result.Matched[2].Symbol)
}

func TestScreen_KeywordMatchesSymbolOrName(t *testing.T) {
	s := New(nil)

	bySymbol := s.Screen(sampleRecords(), &models.Condition{Keyword: "B"}, Options{})
	require.Len(t, bySymbol.Matched, 1)
	assert.Equal(t, "B", bySymbol.Matched[0].Symbol)

	byName := s.Screen(sampleRecords(), &models.Condition{Keyword: "Alpha"}, Options{})
	require.Len(t, byName.Matched, 1)
	assert.Equal(t, "A", byName.Matched[0].Symbol)
}

func TestScreen_SetFilters(t *testing.T) {
	s := New(nil)
	cond := &models.Condition{
		Markets:          []string{"chinext"},
		ConfidenceLevels: []string{models.ConfidenceLow, models.ConfidenceMedium},
	}

	result := s.Screen(sampleRecords(), cond, Options{})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "B", result.Matched[0].Symbol)
}

func TestScreen_SummaryStatistics(t *testing.T) {
	s := New(nil)
	records := []*models.StockRecord{
		{Symbol: "A", CurrentPrice: 10, TotalScore: 0.8, Confidence: models.ConfidenceVeryHigh, Market: "main"},
		{Symbol: "B", CurrentPrice: 30, TotalScore: 0.6, Confidence: models.ConfidenceHigh, Market: "main"},
		{Symbol: "C", CurrentPrice: 20, TotalScore: 0.4, Confidence: models.ConfidenceVeryHigh, Market: "chinext"},
	}

	summary := s.Screen(records, nil, Options{}).Summary

	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 0.6, summary.AvgScore, 1e-9)
	assert.Equal(t, 2, summary.HighConfidenceCount)
	assert.Equal(t, []string{"chinext", "main"}, summary.Markets)
	assert.Equal(t, 10.0, summary.PriceMin)
	assert.Equal(t, 30.0, summary.PriceMax)
	require.Len(t, summary.TopStocks, 3)
	assert.Equal(t, "A", summary.TopStocks[0].Symbol)
}

func TestScreen_TopStocksCappedAtFive(t *testing.T) {
	s := New(nil)
	records := make([]*models.StockRecord, 8)
	for i := range records {
		records[i] = &models.StockRecord{Symbol: string(rune('A' + i)), TotalScore: float64(i)}
	}

	summary := s.Screen(records, nil, Options{}).Summary

	assert.Len(t, summary.TopStocks, 5)
	assert.Equal(t, "H", summary.TopStocks[0].Symbol)
}

func TestScreen_InputNotMutated(t *testing.T) {
	s := New(nil)
	records := []*models.StockRecord{
		{Symbol: "A", TotalScore: 0.1},
		{Symbol: "B", TotalScore: 0.9},
	}

	s.Screen(records, nil, Options{SortByScore: true})

	assert.Equal(t, "A", records[0].Symbol)
	assert.Equal(t, "B", records[1].Symbol)
}

func TestScreenWithPreset_UnknownPreset(t *testing.T) {
	s := New(nil)

	_, err := s.ScreenWithPreset(sampleRecords(), "no_such_preset", nil, Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPresetNotFound)
}

func TestScreenWithPreset_OverrideRelaxesBound(t *testing.T) {
	s := New(nil)
	records := []*models.StockRecord{
		{Symbol: "CHEAP", CurrentPrice: 3, AuctionRatio: 1.0, TechScore: 0.7, Confidence: models.ConfidenceVeryHigh},
		{Symbol: "MID", CurrentPrice: 40, AuctionRatio: 1.0, TechScore: 0.7, Confidence: models.ConfidenceVeryHigh},
	}

	base, err := s.ScreenWithPreset(records, "low_price_breakout", nil, Options{})
	require.NoError(t, err)
	require.Len(t, base.Matched, 1)
	assert.Equal(t, "CHEAP", base.Matched[0].Symbol)

	override := &models.Condition{PriceMax: models.Float64Ptr(100)}
	relaxed, err := s.ScreenWithPreset(records, "low_price_breakout", override, Options{})
	require.NoError(t, err)
	assert.Len(t, relaxed.Matched, 2)
}
