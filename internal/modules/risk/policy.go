package risk

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the exposure limits per tolerance tier and the risk score
// per category. The zero value is not usable; start from DefaultPolicy.
type Policy struct {
	LimitsByLevel  map[RiskLevel]RiskLimits      `yaml:"limits_by_level"`
	CategoryScores map[HoldingCategory]int       `yaml:"category_scores"`
	CategoryLevels map[HoldingCategory]RiskLevel `yaml:"category_levels"`
}

// defaultPolicy is built once and never handed out, so it cannot be mutated.
var defaultPolicy = DefaultPolicy()

// DefaultPolicy returns a fresh copy of the built-in policy tables.
func DefaultPolicy() Policy {
	return Policy{
		LimitsByLevel: map[RiskLevel]RiskLimits{
			LevelMedium:     {DoubleLongETF: 10, Security: 30, SingleETF: 50},
			LevelMediumHigh: {DoubleLongETF: 20, Security: 40, SingleETF: 60},
			LevelHigh:       {DoubleLongETF: 30, Security: 50, SingleETF: 70},
		},
		CategoryScores: map[HoldingCategory]int{
			CategoryBasketETF:     1,
			CategorySingleETF:     2,
			CategoryMisc:          2,
			CategoryAutoAdded:     2,
			CategorySecurity:      3,
			CategoryDoubleLongETF: 4,
		},
		CategoryLevels: map[HoldingCategory]RiskLevel{
			CategoryBasketETF:     LevelMedium,
			CategorySingleETF:     LevelMedium,
			CategoryMisc:          LevelMedium,
			CategoryAutoAdded:     LevelMedium,
			CategorySecurity:      LevelMediumHigh,
			CategoryDoubleLongETF: LevelHigh,
		},
	}
}

// LoadPolicy reads a YAML policy file. Entries present in the file replace
// the built-in ones; anything omitted keeps its default.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document over the built-in defaults.
func ParsePolicy(data []byte) (Policy, error) {
	var overrides Policy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy: %w", err)
	}

	policy := DefaultPolicy()
	for level, limits := range overrides.LimitsByLevel {
		policy.LimitsByLevel[level] = limits
	}
	for category, score := range overrides.CategoryScores {
		policy.CategoryScores[category] = score
	}
	for category, level := range overrides.CategoryLevels {
		policy.CategoryLevels[category] = level
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks that the policy only names known tiers and categories
// and that every cap is finite and no cap or score is negative.
func (p Policy) Validate() error {
	for _, level := range []RiskLevel{LevelMedium, LevelMediumHigh, LevelHigh} {
		if _, ok := p.LimitsByLevel[level]; !ok {
			return fmt.Errorf("policy is missing limits for level %q", level)
		}
	}
	for level, limits := range p.LimitsByLevel {
		if !level.Valid() {
			return fmt.Errorf("policy has limits for unknown level %q", level)
		}
		for _, category := range CappedCategories {
			limit, _ := limits.Limit(category)
			if limit < 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
				return fmt.Errorf("policy limit for %s at level %s must be finite and non-negative, got %v", category, level, limit)
			}
		}
	}
	for category, score := range p.CategoryScores {
		if !category.Valid() {
			return fmt.Errorf("policy has a score for unknown category %q", category)
		}
		if score < 0 {
			return fmt.Errorf("policy score for %s must be non-negative, got %d", category, score)
		}
	}
	for category, level := range p.CategoryLevels {
		if !category.Valid() {
			return fmt.Errorf("policy has a level for unknown category %q", category)
		}
		if !level.Valid() {
			return fmt.Errorf("policy maps %s to unknown level %q", category, level)
		}
	}
	return nil
}

// clone copies the policy tables so the copy shares no maps with p.
func (p Policy) clone() Policy {
	c := Policy{
		LimitsByLevel:  make(map[RiskLevel]RiskLimits, len(p.LimitsByLevel)),
		CategoryScores: make(map[HoldingCategory]int, len(p.CategoryScores)),
		CategoryLevels: make(map[HoldingCategory]RiskLevel, len(p.CategoryLevels)),
	}
	for level, limits := range p.LimitsByLevel {
		c.LimitsByLevel[level] = limits
	}
	for category, score := range p.CategoryScores {
		c.CategoryScores[category] = score
	}
	for category, level := range p.CategoryLevels {
		c.CategoryLevels[category] = level
	}
	return c
}

// Valid reports whether l is one of the three tolerance tiers.
func (l RiskLevel) Valid() bool {
	switch l {
	case LevelMedium, LevelMediumHigh, LevelHigh:
		return true
	}
	return false
}

// RiskLimitsByLevel returns the built-in caps for a tolerance tier.
func RiskLimitsByLevel(level RiskLevel) (RiskLimits, bool) {
	limits, ok := defaultPolicy.LimitsByLevel[level]
	return limits, ok
}

// CategoryRiskScore returns the built-in risk score of a category, 0 if unknown.
func CategoryRiskScore(category HoldingCategory) int {
	return defaultPolicy.CategoryScores[category]
}

// CategoryRiskLevel returns the tolerance tier a category naturally belongs to.
func CategoryRiskLevel(category HoldingCategory) (RiskLevel, bool) {
	return defaultPolicy.CategoryRiskLevel(category)
}

// CategoryRiskLevel returns the tolerance tier a category belongs to under p.
func (p Policy) CategoryRiskLevel(category HoldingCategory) (RiskLevel, bool) {
	level, ok := p.CategoryLevels[category]
	return level, ok
}
