package screener

import (
	"fmt"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// Preset is a named, immutable condition template.
type Preset struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Condition   *models.Condition `json:"conditions"`
}

// Catalog holds the preset templates. It is built once at start-up and
// read-only afterwards, so concurrent readers need no locking.
type Catalog struct {
	presets map[string]*Preset
	order   []string
}

// NewCatalog builds a catalog from the given presets, preserving order.
// Duplicate keys are rejected.
func NewCatalog(presets ...*Preset) (*Catalog, error) {
	catalog := &Catalog{presets: make(map[string]*Preset, len(presets))}
	for _, preset := range presets {
		if preset.Key == "" {
			return nil, fmt.Errorf("preset key cannot be empty")
		}
		if _, exists := catalog.presets[preset.Key]; exists {
			return nil, fmt.Errorf("duplicate preset key: %s", preset.Key)
		}
		catalog.presets[preset.Key] = preset
		catalog.order = append(catalog.order, preset.Key)
	}
	return catalog, nil
}

// Get returns the preset for key. The returned preset carries a cloned
// condition so callers cannot mutate the catalog.
func (c *Catalog) Get(key string) (*Preset, error) {
	preset, exists := c.presets[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrPresetNotFound, key)
	}
	return &Preset{
		Key:         preset.Key,
		Name:        preset.Name,
		Description: preset.Description,
		Condition:   preset.Condition.Clone(),
	}, nil
}

// List returns all presets in registration order, with cloned conditions.
func (c *Catalog) List() []*Preset {
	out := make([]*Preset, 0, len(c.order))
	for _, key := range c.order {
		preset, _ := c.Get(key)
		out = append(out, preset)
	}
	return out
}

// DefaultCatalog returns the built-in screening templates. Their cut points
// are policy data, kept here rather than spread through the engine.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(
		&Preset{
			Key:         "low_price_breakout",
			Name:        "Low-price breakout",
			Description: "Stocks under 10 with a strong opening auction and solid technicals",
			Condition: &models.Condition{
				PriceMin:         models.Float64Ptr(2.0),
				PriceMax:         models.Float64Ptr(10.0),
				AuctionRatioMin:  models.Float64Ptr(0.5),
				TechScoreMin:     models.Float64Ptr(0.55),
				ConfidenceLevels: []string{models.ConfidenceVeryHigh, models.ConfidenceHigh},
			},
		},
		&Preset{
			Key:         "strong_momentum",
			Name:        "Strong momentum",
			Description: "Total score >= 0.8, gap-up open, top-confidence names",
			Condition: &models.Condition{
				TotalScoreMin:    models.Float64Ptr(0.8),
				AuctionRatioMin:  models.Float64Ptr(1.0),
				GapTypes:         []string{models.GapUp},
				ConfidenceLevels: []string{models.ConfidenceVeryHigh},
			},
		},
		&Preset{
			Key:         "value_pick",
			Name:        "Value pick",
			Description: "Mid-priced names with steady technicals and total score >= 0.7",
			Condition: &models.Condition{
				PriceMin:      models.Float64Ptr(10.0),
				PriceMax:      models.Float64Ptr(100.0),
				TotalScoreMin: models.Float64Ptr(0.7),
				TechScoreMin:  models.Float64Ptr(0.6),
			},
		},
		&Preset{
			Key:         "oversold_rebound",
			Name:        "Oversold rebound",
			Description: "Low RSI with a flat-to-slightly-up auction, stabilizing names",
			Condition: &models.Condition{
				RSIMax:          models.Float64Ptr(55.0),
				AuctionRatioMin: models.Float64Ptr(-0.5),
				AuctionRatioMax: models.Float64Ptr(1.5),
				TotalScoreMin:   models.Float64Ptr(0.5),
			},
		},
		&Preset{
			Key:         "small_cap_growth",
			Name:        "Small-cap growth",
			Description: "Domestic growth names under 20B market cap",
			Condition: &models.Condition{
				MarketCapMax:  models.Float64Ptr(200.0),
				Markets:       []string{"a_stock"},
				TotalScoreMin: models.Float64Ptr(0.6),
			},
		},
	)
	if err != nil {
		// Built-in presets are static; a failure here is a programming error.
		panic(err)
	}
	return catalog
}
