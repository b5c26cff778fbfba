package models

import (
	"time"
)

// StockRecord is one snapshot of an instrument as produced by a completed
// analysis run. It is the unit both the screener and the persistence layer
// operate on. Records are read-only once produced.
type StockRecord struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"stock_name"`
	Market           string  `json:"market"`
	CurrentPrice     float64 `json:"current_price"`
	TotalScore       float64 `json:"total_score"`
	TechScore        float64 `json:"tech_score"`
	AuctionScore     float64 `json:"auction_score"`
	AuctionRatio     float64 `json:"auction_ratio"`
	RSI              float64 `json:"rsi"`
	MarketCapBillion float64 `json:"market_cap_billion"`
	GapType          string  `json:"gap_type"`
	Confidence       string  `json:"confidence"`
	Strategy         string  `json:"strategy,omitempty"`
	EntryPrice       float64 `json:"entry_price,omitempty"`
	StopLoss         float64 `json:"stop_loss,omitempty"`
	TargetPrice      float64 `json:"target_price,omitempty"`
}

// Confidence tiers carried on records, highest first.
const (
	ConfidenceVeryHigh = "very_high"
	ConfidenceHigh     = "high"
	ConfidenceMedium   = "medium"
	ConfidenceLow      = "low"
)

// Gap classifications carried on records.
const (
	GapUp   = "gap_up"
	GapDown = "gap_down"
	GapFlat = "flat"
)

// Field resolves a named field on the record for custom-rule evaluation.
// Numeric fields come back as float64, text fields as string. Unknown names
// return ok=false; the caller treats that as a non-match, never an error,
// since rule authors may reference fields a given record schema lacks.
func (r *StockRecord) Field(name string) (value interface{}, ok bool) {
	switch name {
	case "symbol":
		return r.Symbol, true
	case "stock_name", "name":
		return r.Name, true
	case "market":
		return r.Market, true
	case "current_price", "price":
		return r.CurrentPrice, true
	case "total_score":
		return r.TotalScore, true
	case "tech_score":
		return r.TechScore, true
	case "auction_score":
		return r.AuctionScore, true
	case "auction_ratio":
		return r.AuctionRatio, true
	case "rsi":
		return r.RSI, true
	case "market_cap_billion", "market_cap":
		return r.MarketCapBillion, true
	case "gap_type":
		return r.GapType, true
	case "confidence":
		return r.Confidence, true
	case "strategy":
		return r.Strategy, true
	case "entry_price":
		return r.EntryPrice, true
	case "stop_loss":
		return r.StopLoss, true
	case "target_price":
		return r.TargetPrice, true
	default:
		return nil, false
	}
}

// Operator is a custom-rule comparison operator.
type Operator string

const (
	OpGT       Operator = "gt"
	OpGTE      Operator = "gte"
	OpLT       Operator = "lt"
	OpLTE      Operator = "lte"
	OpEQ       Operator = "eq"
	OpNEQ      Operator = "neq"
	OpContains Operator = "contains"
)

// CustomRule is a single user-authored comparison clause within a Condition.
type CustomRule struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// Validate validates a CustomRule.
func (c *CustomRule) Validate() error {
	if c.Field == "" {
		return ErrInvalidField
	}
	switch c.Operator {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpNEQ, OpContains:
		return nil
	default:
		return ErrInvalidOperator
	}
}

// Condition is the full set of filter criteria for a screening request.
// Absent (nil) bounds impose no constraint; every present constraint combines
// with logical AND, including the custom rules.
type Condition struct {
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
	TotalScoreMin   *float64 `json:"total_score_min,omitempty"`
	TotalScoreMax   *float64 `json:"total_score_max,omitempty"`
	TechScoreMin    *float64 `json:"tech_score_min,omitempty"`
	TechScoreMax    *float64 `json:"tech_score_max,omitempty"`
	AuctionScoreMin *float64 `json:"auction_score_min,omitempty"`
	AuctionScoreMax *float64 `json:"auction_score_max,omitempty"`
	AuctionRatioMin *float64 `json:"auction_ratio_min,omitempty"`
	AuctionRatioMax *float64 `json:"auction_ratio_max,omitempty"`
	RSIMin          *float64 `json:"rsi_min,omitempty"`
	RSIMax          *float64 `json:"rsi_max,omitempty"`
	MarketCapMin    *float64 `json:"market_cap_min,omitempty"`
	MarketCapMax    *float64 `json:"market_cap_max,omitempty"`

	GapTypes         []string `json:"gap_types,omitempty"`
	ConfidenceLevels []string `json:"confidence_levels,omitempty"`
	Markets          []string `json:"markets,omitempty"`

	Keyword string `json:"keyword,omitempty"`

	CustomRules []CustomRule `json:"custom_rules,omitempty"`
}

// Validate validates a Condition.
func (c *Condition) Validate() error {
	for i := range c.CustomRules {
		if err := c.CustomRules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the condition imposes no constraint at all.
func (c *Condition) IsEmpty() bool {
	return c.PriceMin == nil && c.PriceMax == nil &&
		c.TotalScoreMin == nil && c.TotalScoreMax == nil &&
		c.TechScoreMin == nil && c.TechScoreMax == nil &&
		c.AuctionScoreMin == nil && c.AuctionScoreMax == nil &&
		c.AuctionRatioMin == nil && c.AuctionRatioMax == nil &&
		c.RSIMin == nil && c.RSIMax == nil &&
		c.MarketCapMin == nil && c.MarketCapMax == nil &&
		len(c.GapTypes) == 0 && len(c.ConfidenceLevels) == 0 &&
		len(c.Markets) == 0 && c.Keyword == "" && len(c.CustomRules) == 0
}

// Merge returns a copy of c with every field explicitly set on override
// replacing the corresponding base field. Override is field-level: bounds the
// caller leaves nil keep the base value.
func (c *Condition) Merge(override *Condition) *Condition {
	merged := c.Clone()
	if override == nil {
		return merged
	}
	if override.PriceMin != nil {
		merged.PriceMin = clonePtr(override.PriceMin)
	}
	if override.PriceMax != nil {
		merged.PriceMax = clonePtr(override.PriceMax)
	}
	if override.TotalScoreMin != nil {
		merged.TotalScoreMin = clonePtr(override.TotalScoreMin)
	}
	if override.TotalScoreMax != nil {
		merged.TotalScoreMax = clonePtr(override.TotalScoreMax)
	}
	if override.TechScoreMin != nil {
		merged.TechScoreMin = clonePtr(override.TechScoreMin)
	}
	if override.TechScoreMax != nil {
		merged.TechScoreMax = clonePtr(override.TechScoreMax)
	}
	if override.AuctionScoreMin != nil {
		merged.AuctionScoreMin = clonePtr(override.AuctionScoreMin)
	}
	if override.AuctionScoreMax != nil {
		merged.AuctionScoreMax = clonePtr(override.AuctionScoreMax)
	}
	if override.AuctionRatioMin != nil {
		merged.AuctionRatioMin = clonePtr(override.AuctionRatioMin)
	}
	if override.AuctionRatioMax != nil {
		merged.AuctionRatioMax = clonePtr(override.AuctionRatioMax)
	}
	if override.RSIMin != nil {
		merged.RSIMin = clonePtr(override.RSIMin)
	}
	if override.RSIMax != nil {
		merged.RSIMax = clonePtr(override.RSIMax)
	}
	if override.MarketCapMin != nil {
		merged.MarketCapMin = clonePtr(override.MarketCapMin)
	}
	if override.MarketCapMax != nil {
		merged.MarketCapMax = clonePtr(override.MarketCapMax)
	}
	if len(override.GapTypes) > 0 {
		merged.GapTypes = append([]string(nil), override.GapTypes...)
	}
	if len(override.ConfidenceLevels) > 0 {
		merged.ConfidenceLevels = append([]string(nil), override.ConfidenceLevels...)
	}
	if len(override.Markets) > 0 {
		merged.Markets = append([]string(nil), override.Markets...)
	}
	if override.Keyword != "" {
		merged.Keyword = override.Keyword
	}
	if len(override.CustomRules) > 0 {
		merged.CustomRules = append([]CustomRule(nil), override.CustomRules...)
	}
	return merged
}

// Clone returns a deep copy of the condition.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return &Condition{}
	}
	out := &Condition{
		PriceMin:        clonePtr(c.PriceMin),
		PriceMax:        clonePtr(c.PriceMax),
		TotalScoreMin:   clonePtr(c.TotalScoreMin),
		TotalScoreMax:   clonePtr(c.TotalScoreMax),
		TechScoreMin:    clonePtr(c.TechScoreMin),
		TechScoreMax:    clonePtr(c.TechScoreMax),
		AuctionScoreMin: clonePtr(c.AuctionScoreMin),
		AuctionScoreMax: clonePtr(c.AuctionScoreMax),
		AuctionRatioMin: clonePtr(c.AuctionRatioMin),
		AuctionRatioMax: clonePtr(c.AuctionRatioMax),
		RSIMin:          clonePtr(c.RSIMin),
		RSIMax:          clonePtr(c.RSIMax),
		MarketCapMin:    clonePtr(c.MarketCapMin),
		MarketCapMax:    clonePtr(c.MarketCapMax),
		Keyword:         c.Keyword,
	}
	if len(c.GapTypes) > 0 {
		out.GapTypes = append([]string(nil), c.GapTypes...)
	}
	if len(c.ConfidenceLevels) > 0 {
		out.ConfidenceLevels = append([]string(nil), c.ConfidenceLevels...)
	}
	if len(c.Markets) > 0 {
		out.Markets = append([]string(nil), c.Markets...)
	}
	if len(c.CustomRules) > 0 {
		out.CustomRules = append([]CustomRule(nil), c.CustomRules...)
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Float64Ptr is a convenience for building conditions literally.
func Float64Ptr(v float64) *float64 { return &v }

// ScreenRecord is one persisted screening run: the condition used plus a
// summary of what matched. Full matched rows are kept for detail views.
type ScreenRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	PresetKey   string         `json:"preset_key,omitempty"`
	Condition   *Condition     `json:"conditions"`
	ResultCount int            `json:"result_count"`
	Symbols     []string       `json:"result_symbols"`
	Summary     *ScreenSummary `json:"result_summary"`
	Results     []*StockRecord `json:"result_data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ScreenSummary holds statistics computed over the matched set only.
type ScreenSummary struct {
	Count               int        `json:"count"`
	AvgScore            float64    `json:"avg_score"`
	HighConfidenceCount int        `json:"high_confidence_count"`
	Markets             []string   `json:"markets"`
	PriceMin            float64    `json:"price_min"`
	PriceMax            float64    `json:"price_max"`
	TopStocks           []TopStock `json:"top_stocks"`
}

// TopStock is a summary row for the best-scored matches.
type TopStock struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"stock_name"`
	TotalScore   float64 `json:"total_score"`
	CurrentPrice float64 `json:"current_price"`
	Confidence   string  `json:"confidence"`
}
