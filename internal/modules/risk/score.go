package risk

// CalculatePortfolioRiskScore returns the target-weighted mean of the
// built-in category scores.
func CalculatePortfolioRiskScore(allocations []CategoryAllocation) float64 {
	return defaultPolicy.PortfolioRiskScore(allocations)
}

// PortfolioRiskScore weights each category score by its target percentage.
// An empty or zero-weight proposal scores 0. The result is not clamped, so
// negative weights can push it outside the score range. Unknown categories
// score 0 but still carry their weight.
func (p Policy) PortfolioRiskScore(allocations []CategoryAllocation) float64 {
	var weightedSum, totalWeight float64
	for _, alloc := range allocations {
		weightedSum += float64(p.CategoryScores[alloc.Category]) * alloc.TargetPercentage
		totalWeight += alloc.TargetPercentage
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

type scoreBand struct {
	upTo  float64
	label string
	color string
}

// scoreBands are checked in order; the first band whose upper bound is at
// least the score wins. Anything above the last bound, NaN included, is High Risk.
var scoreBands = []scoreBand{
	{upTo: 1.5, label: "Very Low Risk", color: "text-green-600"},
	{upTo: 2.0, label: "Low Risk", color: "text-lime-600"},
	{upTo: 2.5, label: "Moderate Risk", color: "text-yellow-600"},
	{upTo: 3.0, label: "Moderate-High Risk", color: "text-orange-600"},
}

var highestBand = scoreBand{label: "High Risk", color: "text-red-600"}

func bandFor(score float64) scoreBand {
	for _, band := range scoreBands {
		if score <= band.upTo {
			return band
		}
	}
	return highestBand
}

// GetRiskScoreLabel returns the display label for a portfolio risk score.
func GetRiskScoreLabel(score float64) string {
	return bandFor(score).label
}

// GetRiskScoreColor returns the color token for a portfolio risk score.
func GetRiskScoreColor(score float64) string {
	return bandFor(score).color
}
