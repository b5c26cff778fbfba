package quote

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// defaultHistoryDays is how much daily history the synthetic feed produces,
// enough for every indicator window the analyzer uses.
const defaultHistoryDays = 180

// SyntheticProvider generates plausible market data from a per-symbol
// deterministic random walk. It backs development, tests, and the fallback
// path when the real feed is unreachable: the same symbol always yields the
// same series within a process run day.
type SyntheticProvider struct {
	historyDays int
	now         func() time.Time
}

// NewSyntheticProvider creates a synthetic data provider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{
		historyDays: defaultHistoryDays,
		now:         time.Now,
	}
}

// Name returns the provider identifier.
func (p *SyntheticProvider) Name() string { return "synthetic" }

// Snapshot produces a full synthetic snapshot for the symbol.
func (p *SyntheticProvider) Snapshot(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed(symbol)))
	bars := p.generateBars(rng)
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	changePct := 0.0
	if prev.Close > 0 {
		changePct = (last.Close - prev.Close) / prev.Close * 100.0
	}

	snapshot := &models.InstrumentSnapshot{
		Symbol: symbol,
		Name:   symbol,
		Bars:   bars,
		Quote: &models.Quote{
			Symbol:         symbol,
			Name:           symbol,
			CurrentPrice:   last.Close,
			ChangePct:      changePct,
			Open:           last.Open,
			High:           last.High,
			Low:            last.Low,
			PrevClose:      prev.Close,
			Volume:         last.Volume,
			Turnover:       last.Volume * last.Close,
			VolumeRatio:    0.5 + rng.Float64()*2.0,
			TurnoverRate:   rng.Float64() * 10.0,
			PERatio:        5.0 + rng.Float64()*45.0,
			PBRatio:        0.5 + rng.Float64()*9.5,
			TotalMarketCap: (10 + rng.Float64()*490) * 1e8,
			UpdatedAt:      p.now(),
		},
		Fundamentals: &models.Fundamentals{
			Indicators: map[string]float64{
				"roe":            rng.Float64() * 25.0,
				"pe_ratio":       5.0 + rng.Float64()*45.0,
				"debt_ratio":     20.0 + rng.Float64()*60.0,
				"revenue_growth": -10.0 + rng.Float64()*40.0,
			},
			HasValuation: true,
		},
		Sentiment: &models.Sentiment{
			Overall:       -0.2 + rng.Float64()*0.4,
			Confidence:    0.3 + rng.Float64()*0.4,
			TotalAnalyzed: 10 + rng.Intn(90),
			Trend:         "neutral",
		},
	}
	return snapshot, nil
}

// generateBars runs a bounded random walk of daily bars, oldest first.
func (p *SyntheticProvider) generateBars(rng *rand.Rand) []models.Bar {
	bars := make([]models.Bar, 0, p.historyDays)
	price := 5.0 + rng.Float64()*95.0
	day := p.now().AddDate(0, 0, -p.historyDays)

	for i := 0; i < p.historyDays; i++ {
		drift := (rng.Float64() - 0.49) * 0.04
		open := price
		close := price * (1 + drift)
		if close < 0.5 {
			close = 0.5
		}
		high := maxFloat(open, close) * (1 + rng.Float64()*0.02)
		low := minFloat(open, close) * (1 - rng.Float64()*0.02)
		volume := float64(100000 + rng.Intn(2000000))

		bars = append(bars, models.Bar{
			Date:   day,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
		price = close
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func seed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
