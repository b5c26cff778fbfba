package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

func TestLadder_Classify(t *testing.T) {
	ladder := DefaultLadder()

	tests := []struct {
		score float64
		want  models.Recommendation
	}{
		{100, models.RecommendStrongBuy},
		{80, models.RecommendStrongBuy},
		{79.9, models.RecommendBuy},
		{65, models.RecommendBuy},
		{64.9, models.RecommendHold},
		{45, models.RecommendHold},
		{44.9, models.RecommendReduce},
		{30, models.RecommendReduce},
		{29.9, models.RecommendSell},
		{0, models.RecommendSell},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ladder.Classify(tt.score), "score %v", tt.score)
	}
}

func TestLadder_TotalAndMonotonic(t *testing.T) {
	ladder := DefaultLadder()
	rank := map[models.Recommendation]int{
		models.RecommendSell:      0,
		models.RecommendReduce:    1,
		models.RecommendHold:      2,
		models.RecommendBuy:       3,
		models.RecommendStrongBuy: 4,
	}

	prev := -1
	for score := 0.0; score <= 100.0; score += 0.5 {
		band := ladder.Classify(score)
		current, known := rank[band]
		assert.True(t, known, "score %v produced unknown band %q", score, band)
		assert.GreaterOrEqual(t, current, prev, "band rank regressed at score %v", score)
		prev = current
	}
}

func TestLadder_Validate(t *testing.T) {
	assert.NoError(t, DefaultLadder().Validate())
	assert.Error(t, Ladder{StrongBuy: 50, Buy: 65, Hold: 45, Reduce: 30}.Validate())
	assert.Error(t, Ladder{StrongBuy: 80, Buy: 80, Hold: 45, Reduce: 30}.Validate())
}
