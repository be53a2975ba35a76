// Package allocation compares held positions with target allocations and
// runs the account review that pairs that comparison with risk validation.
package allocation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/backoffice/internal/modules/risk"
)

var hundred = decimal.NewFromInt(100)

// Holding is a position as reported by the account's custodian.
type Holding struct {
	Ticker      string               `json:"ticker" yaml:"ticker"`
	Category    risk.HoldingCategory `json:"category" yaml:"category"`
	MarketValue decimal.Decimal      `json:"marketValue" yaml:"marketValue"`
	ReturnPct   float64              `json:"returnPct" yaml:"returnPct"`
}

// TargetAllocation is a persisted target row: ticker, category and percentage.
type TargetAllocation struct {
	Ticker           string               `json:"ticker" yaml:"ticker"`
	Category         risk.HoldingCategory `json:"category" yaml:"category"`
	TargetPercentage float64              `json:"targetPercentage" yaml:"targetPercentage"`
}

// TickerComparison is the target versus actual weight of one ticker.
type TickerComparison struct {
	Ticker      string               `json:"ticker" msgpack:"ticker"`
	Category    risk.HoldingCategory `json:"category" msgpack:"category"`
	TargetPct   float64              `json:"targetPct" msgpack:"targetPct"`
	ActualPct   float64              `json:"actualPct" msgpack:"actualPct"`
	Deviation   float64              `json:"deviation" msgpack:"deviation"`
	MarketValue float64              `json:"marketValue" msgpack:"marketValue"`
}

// CategoryComparison is the target versus actual weight of one category.
type CategoryComparison struct {
	Category    risk.HoldingCategory `json:"category" msgpack:"category"`
	TargetPct   float64              `json:"targetPct" msgpack:"targetPct"`
	ActualPct   float64              `json:"actualPct" msgpack:"actualPct"`
	Deviation   float64              `json:"deviation" msgpack:"deviation"`
	MarketValue float64              `json:"marketValue" msgpack:"marketValue"`
}

// Comparison summarises how far a portfolio sits from its targets.
type Comparison struct {
	TotalValue      float64              `json:"totalValue" msgpack:"totalValue"`
	Tickers         []TickerComparison   `json:"tickers" msgpack:"tickers"`
	Categories      []CategoryComparison `json:"categories" msgpack:"categories"`
	WeightedReturn  float64              `json:"weightedReturn" msgpack:"weightedReturn"`
	ReturnVariance  float64              `json:"returnVariance" msgpack:"returnVariance"`
	TargetRiskScore float64              `json:"targetRiskScore" msgpack:"targetRiskScore"`
	ActualRiskScore float64              `json:"actualRiskScore" msgpack:"actualRiskScore"`
}

// RiskScorer scores a category mix. Both risk.Policy and *risk.Engine satisfy it.
type RiskScorer interface {
	PortfolioRiskScore(allocations []risk.CategoryAllocation) float64
}

// CompareToTargets lines holdings up against targets per ticker and per
// category. Holdings of the same ticker are merged. A ticker is counted under
// its target category when it has one and under its held category otherwise,
// in both the ticker and the category rows. Percentages are of the total
// market value and are 0 when nothing is held.
func CompareToTargets(holdings []Holding, targets []TargetAllocation, scorer RiskScorer) Comparison {
	totalValue := decimal.Zero
	heldValues := make(map[string]decimal.Decimal)
	heldCategories := make(map[string]risk.HoldingCategory)
	for _, h := range holdings {
		totalValue = totalValue.Add(h.MarketValue)
		heldValues[h.Ticker] = heldValues[h.Ticker].Add(h.MarketValue)
		if _, seen := heldCategories[h.Ticker]; !seen {
			heldCategories[h.Ticker] = h.Category
		}
	}

	targetPcts := make(map[string]float64)
	targetCategories := make(map[string]risk.HoldingCategory)
	for _, t := range targets {
		targetPcts[t.Ticker] += t.TargetPercentage
		if _, seen := targetCategories[t.Ticker]; !seen {
			targetCategories[t.Ticker] = t.Category
		}
	}

	actualPct := func(value decimal.Decimal) float64 {
		if !totalValue.IsPositive() {
			return 0
		}
		return value.Div(totalValue).Mul(hundred).Round(4).InexactFloat64()
	}

	tickers := make(map[string]bool)
	for ticker := range heldValues {
		tickers[ticker] = true
	}
	for ticker := range targetPcts {
		tickers[ticker] = true
	}

	categoryOf := make(map[string]risk.HoldingCategory, len(tickers))
	for ticker := range tickers {
		category, ok := targetCategories[ticker]
		if !ok {
			category = heldCategories[ticker]
		}
		categoryOf[ticker] = category
	}

	tickerRows := make([]TickerComparison, 0, len(tickers))
	for ticker, category := range categoryOf {
		value := heldValues[ticker]
		current := actualPct(value)
		target := targetPcts[ticker]

		tickerRows = append(tickerRows, TickerComparison{
			Ticker:      ticker,
			Category:    category,
			TargetPct:   target,
			ActualPct:   round(current, 2),
			Deviation:   round(current-target, 2),
			MarketValue: value.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(tickerRows, func(i, j int) bool {
		return tickerRows[i].Ticker < tickerRows[j].Ticker
	})

	categoryValues := make(map[risk.HoldingCategory]decimal.Decimal)
	for ticker, value := range heldValues {
		category := categoryOf[ticker]
		categoryValues[category] = categoryValues[category].Add(value)
	}
	categoryTargets := make(map[risk.HoldingCategory]float64)
	for ticker, pct := range targetPcts {
		categoryTargets[categoryOf[ticker]] += pct
	}

	categoryRows := buildCategoryComparisons(categoryValues, categoryTargets, actualPct)

	var actualMix []risk.CategoryAllocation
	for _, row := range categoryRows {
		actualMix = append(actualMix, risk.CategoryAllocation{Category: row.Category, TargetPercentage: row.ActualPct})
	}
	weightedReturn, returnVariance := returnStats(holdings)

	return Comparison{
		TotalValue:      totalValue.Round(2).InexactFloat64(),
		Tickers:         tickerRows,
		Categories:      categoryRows,
		WeightedReturn:  round(weightedReturn, 4),
		ReturnVariance:  round(returnVariance, 4),
		TargetRiskScore: scorer.PortfolioRiskScore(TargetCategories(targets)),
		ActualRiskScore: scorer.PortfolioRiskScore(actualMix),
	}
}

// buildCategoryComparisons creates one row per category seen in either the
// holdings or the targets, sorted by category.
func buildCategoryComparisons(
	categoryValues map[risk.HoldingCategory]decimal.Decimal,
	categoryTargets map[risk.HoldingCategory]float64,
	actualPct func(decimal.Decimal) float64,
) []CategoryComparison {
	categories := make(map[risk.HoldingCategory]bool)
	for category := range categoryValues {
		categories[category] = true
	}
	for category := range categoryTargets {
		categories[category] = true
	}

	rows := make([]CategoryComparison, 0, len(categories))
	for category := range categories {
		value := categoryValues[category]
		current := actualPct(value)
		target := categoryTargets[category]

		rows = append(rows, CategoryComparison{
			Category:    category,
			TargetPct:   target,
			ActualPct:   round(current, 2),
			Deviation:   round(current-target, 2),
			MarketValue: value.Round(2).InexactFloat64(),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Category < rows[j].Category
	})

	return rows
}

// returnStats computes the value-weighted mean and population variance of
// holding returns. Holdings without a positive value carry no weight.
func returnStats(holdings []Holding) (mean, variance float64) {
	var returns, weights []float64
	for _, h := range holdings {
		if !h.MarketValue.IsPositive() {
			continue
		}
		returns = append(returns, h.ReturnPct)
		weights = append(weights, h.MarketValue.InexactFloat64())
	}
	if len(returns) == 0 {
		return 0, 0
	}
	return stat.Mean(returns, weights), stat.PopVariance(returns, weights)
}

// round rounds a float64 to n decimal places. NaN and infinities pass through.
func round(val float64, decimals int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return decimal.NewFromFloat(val).Round(decimals).InexactFloat64()
}
