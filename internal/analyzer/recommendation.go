package analyzer

import (
	"fmt"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// Ladder maps a comprehensive score to a recommendation band. Thresholds are
// lower bounds checked top-down; anything below Reduce classifies as sell.
type Ladder struct {
	StrongBuy float64
	Buy       float64
	Hold      float64
	Reduce    float64
}

// DefaultLadder returns the standard five-band cut points.
func DefaultLadder() Ladder {
	return Ladder{StrongBuy: 80, Buy: 65, Hold: 45, Reduce: 30}
}

// Validate rejects ladders whose thresholds are not strictly descending.
// A malformed ladder could classify a higher score into a worse band.
func (l Ladder) Validate() error {
	if l.StrongBuy > l.Buy && l.Buy > l.Hold && l.Hold > l.Reduce {
		return nil
	}
	return fmt.Errorf("recommendation ladder thresholds must be strictly descending: %+v", l)
}

// Classify maps a score to its band. Every finite score classifies.
func (l Ladder) Classify(score float64) models.Recommendation {
	switch {
	case score >= l.StrongBuy:
		return models.RecommendStrongBuy
	case score >= l.Buy:
		return models.RecommendBuy
	case score >= l.Hold:
		return models.RecommendHold
	case score >= l.Reduce:
		return models.RecommendReduce
	default:
		return models.RecommendSell
	}
}
