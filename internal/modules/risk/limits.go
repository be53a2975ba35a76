package risk

import (
	"fmt"
	"math"
)

// CalculateBlendedLimits interpolates the built-in tier limits by the
// account's tolerance mix.
func CalculateBlendedLimits(allocation RiskAllocation) RiskLimits {
	return defaultPolicy.BlendedLimits(allocation)
}

// ValidateRiskLimits checks a proposal against the built-in policy.
func ValidateRiskLimits(allocations []CategoryAllocation, riskAllocation RiskAllocation) ValidationResult {
	return defaultPolicy.ValidateRiskLimits(allocations, riskAllocation)
}

// BlendedLimits treats each tier percentage as an independent weight over
// 100. Inputs are not clamped, so out-of-range or NaN values flow straight
// into the result.
func (p Policy) BlendedLimits(allocation RiskAllocation) RiskLimits {
	medium := p.LimitsByLevel[LevelMedium]
	mediumHigh := p.LimitsByLevel[LevelMediumHigh]
	high := p.LimitsByLevel[LevelHigh]

	wMedium := allocation.Medium / 100
	wMediumHigh := allocation.MediumHigh / 100
	wHigh := allocation.High / 100

	blend := func(m, mh, h float64) float64 {
		return m*wMedium + mh*wMediumHigh + h*wHigh
	}

	return RiskLimits{
		DoubleLongETF: blend(medium.DoubleLongETF, mediumHigh.DoubleLongETF, high.DoubleLongETF),
		Security:      blend(medium.Security, mediumHigh.Security, high.Security),
		SingleETF:     blend(medium.SingleETF, mediumHigh.SingleETF, high.SingleETF),
	}
}

// ValidateRiskLimits sums the proposal per category and compares the capped
// categories with their blended limit rounded to one decimal. A total above
// the limit is a violation; a total above 80% of a non-zero limit is a warning.
func (p Policy) ValidateRiskLimits(allocations []CategoryAllocation, riskAllocation RiskAllocation) ValidationResult {
	limits := p.BlendedLimits(riskAllocation)

	categoryTotals := make(map[HoldingCategory]float64)
	for _, alloc := range allocations {
		categoryTotals[alloc.Category] += alloc.TargetPercentage
	}

	result := ValidationResult{
		Violations: []LimitCheck{},
		Warnings:   []LimitCheck{},
	}

	for _, category := range CappedCategories {
		limit, _ := limits.Limit(category)
		maxAllowed := roundToTenth(limit)
		total := categoryTotals[category]

		switch {
		case total > maxAllowed:
			result.Violations = append(result.Violations, LimitCheck{
				Category:          category,
				CurrentPercentage: total,
				MaxAllowed:        maxAllowed,
				ExceededBy:        total - maxAllowed,
				Message: fmt.Sprintf("%s allocation (%s%%) exceeds the %s%% limit by %s%%",
					CategoryLabel(category), formatNumber(total), formatNumber(maxAllowed), formatNumber(total-maxAllowed)),
			})
		case maxAllowed > 0 && total > maxAllowed*WarningThreshold:
			result.Warnings = append(result.Warnings, LimitCheck{
				Category:          category,
				CurrentPercentage: total,
				MaxAllowed:        maxAllowed,
				ExceededBy:        0,
				Message: fmt.Sprintf("%s allocation (%s%%) is approaching the %s%% limit",
					CategoryLabel(category), formatNumber(total), formatNumber(maxAllowed)),
			})
		}
	}

	result.IsValid = len(result.Violations) == 0
	return result
}

// roundToTenth rounds half up to one decimal place.
func roundToTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
