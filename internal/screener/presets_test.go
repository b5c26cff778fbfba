package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

func TestDefaultCatalog_ContainsAllTemplates(t *testing.T) {
	catalog := DefaultCatalog()

	keys := []string{"low_price_breakout", "strong_momentum", "value_pick", "oversold_rebound", "small_cap_growth"}
	for _, key := range keys {
		preset, err := catalog.Get(key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, preset.Name)
		assert.False(t, preset.Condition.IsEmpty())
	}

	list := catalog.List()
	require.Len(t, list, len(keys))
	for i, key := range keys {
		assert.Equal(t, key, list[i].Key)
	}
}

func TestCatalog_GetUnknownKey(t *testing.T) {
	catalog := DefaultCatalog()

	_, err := catalog.Get("nonexistent")

	assert.ErrorIs(t, err, models.ErrPresetNotFound)
}

func TestCatalog_GetReturnsClone(t *testing.T) {
	catalog := DefaultCatalog()

	first, err := catalog.Get("strong_momentum")
	require.NoError(t, err)

	// Mutating the returned condition must not leak into the catalog.
	*first.Condition.TotalScoreMin = 0.01
	first.Condition.GapTypes[0] = "mutated"

	second, err := catalog.Get("strong_momentum")
	require.NoError(t, err)
	assert.Equal(t, 0.8, *second.Condition.TotalScoreMin)
	assert.Equal(t, models.GapUp, second.Condition.GapTypes[0])
}

func TestNewCatalog_RejectsDuplicateKeys(t *testing.T) {
	_, err := NewCatalog(
		&Preset{Key: "dup", Name: "first", Condition: &models.Condition{}},
		&Preset{Key: "dup", Name: "second", Condition: &models.Condition{}},
	)

	assert.Error(t, err)
}

func TestNewCatalog_RejectsEmptyKey(t *testing.T) {
	_, err := NewCatalog(&Preset{Key: "", Name: "anon", Condition: &models.Condition{}})

	assert.Error(t, err)
}

func TestConditionMerge_FieldLevelOverride(t *testing.T) {
	base := &models.Condition{
		PriceMin:      models.Float64Ptr(2),
		PriceMax:      models.Float64Ptr(10),
		TotalScoreMin: models.Float64Ptr(0.5),
	}
	override := &models.Condition{PriceMax: models.Float64Ptr(50)}

	merged := base.Merge(override)

	assert.Equal(t, 2.0, *merged.PriceMin)
	assert.Equal(t, 50.0, *merged.PriceMax)
	assert.Equal(t, 0.5, *merged.TotalScoreMin)
	// Base is untouched.
	assert.Equal(t, 10.0, *base.PriceMax)
}
