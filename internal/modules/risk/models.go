// Package risk blends account risk tolerance into category exposure limits
// and validates proposed target allocations against them.
package risk

// HoldingCategory classifies a tradable instrument by structural risk.
type HoldingCategory string

const (
	CategoryBasketETF     HoldingCategory = "basket_etf"
	CategorySingleETF     HoldingCategory = "single_etf"
	CategoryDoubleLongETF HoldingCategory = "double_long_etf"
	CategorySecurity      HoldingCategory = "security"
	CategoryAutoAdded     HoldingCategory = "auto_added"
	CategoryMisc          HoldingCategory = "misc"
)

// AllCategories lists every holding category in display order.
var AllCategories = []HoldingCategory{
	CategoryBasketETF,
	CategorySingleETF,
	CategoryDoubleLongETF,
	CategorySecurity,
	CategoryAutoAdded,
	CategoryMisc,
}

// CappedCategories are the categories with exposure limits, in check order.
// basket_etf, auto_added and misc are scored but never capped.
var CappedCategories = []HoldingCategory{
	CategoryDoubleLongETF,
	CategorySecurity,
	CategorySingleETF,
}

// RiskLevel is one of the three risk tolerance tiers.
type RiskLevel string

const (
	LevelMedium     RiskLevel = "medium"
	LevelMediumHigh RiskLevel = "mediumHigh"
	LevelHigh       RiskLevel = "high"
)

// RiskAllocation splits an account mandate across the three tolerance tiers.
// Values are percentages; they should sum to 100 but nothing enforces it.
type RiskAllocation struct {
	Medium     float64 `json:"medium" yaml:"medium" msgpack:"medium"`
	MediumHigh float64 `json:"mediumHigh" yaml:"mediumHigh" msgpack:"mediumHigh"`
	High       float64 `json:"high" yaml:"high" msgpack:"high"`
}

// RiskLimits holds the exposure caps, as a percentage of total allocation.
type RiskLimits struct {
	DoubleLongETF float64 `json:"double_long_etf" yaml:"double_long_etf" msgpack:"double_long_etf"`
	Security      float64 `json:"security" yaml:"security" msgpack:"security"`
	SingleETF     float64 `json:"single_etf" yaml:"single_etf" msgpack:"single_etf"`
}

// Limit returns the cap for a category. ok is false for uncapped categories.
func (l RiskLimits) Limit(category HoldingCategory) (limit float64, ok bool) {
	switch category {
	case CategoryDoubleLongETF:
		return l.DoubleLongETF, true
	case CategorySecurity:
		return l.Security, true
	case CategorySingleETF:
		return l.SingleETF, true
	}
	return 0, false
}

// CategoryAllocation is one entry of a proposed target allocation.
type CategoryAllocation struct {
	Category         HoldingCategory `json:"category" yaml:"category" msgpack:"category"`
	TargetPercentage float64         `json:"targetPercentage" yaml:"targetPercentage" msgpack:"targetPercentage"`
}

// LimitCheck describes a category that breached or is approaching its cap.
type LimitCheck struct {
	Category          HoldingCategory `json:"category" msgpack:"category"`
	CurrentPercentage float64         `json:"currentPercentage" msgpack:"currentPercentage"`
	MaxAllowed        float64         `json:"maxAllowed" msgpack:"maxAllowed"`
	ExceededBy        float64         `json:"exceededBy" msgpack:"exceededBy"`
	Message           string          `json:"message" msgpack:"message"`
}

// ValidationResult is the outcome of checking a proposal against blended limits.
type ValidationResult struct {
	IsValid    bool         `json:"isValid" msgpack:"isValid"`
	Violations []LimitCheck `json:"violations" msgpack:"violations"`
	Warnings   []LimitCheck `json:"warnings" msgpack:"warnings"`
}

// WarningThreshold is the fraction of a cap above which a warning is emitted.
const WarningThreshold = 0.8

var categoryLabels = map[HoldingCategory]string{
	CategoryBasketETF:     "Basket ETF",
	CategorySingleETF:     "Single ETF",
	CategoryDoubleLongETF: "Double Long ETF",
	CategorySecurity:      "Security",
	CategoryAutoAdded:     "Auto Added",
	CategoryMisc:          "Misc",
}

// CategoryLabel returns the display name of a category, or the raw value if unknown.
func CategoryLabel(category HoldingCategory) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return string(category)
}

// Valid reports whether c is one of the known categories.
func (c HoldingCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}
