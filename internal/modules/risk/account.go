package risk

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Percent is a stored risk percentage. Account rows keep these as text, but
// imports and fixtures may carry plain numbers, so both decode.
type Percent string

// PercentOf is a convenience for building AccountRiskFields by hand.
func PercentOf(s string) *Percent {
	p := Percent(s)
	return &p
}

// UnmarshalJSON accepts a JSON string or number.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Percent(s)
		return nil
	}
	*p = Percent(strings.TrimSpace(string(data)))
	return nil
}

// UnmarshalYAML accepts any scalar.
func (p *Percent) UnmarshalYAML(node *yaml.Node) error {
	*p = Percent(node.Value)
	return nil
}

// AccountRiskFields are the risk tolerance columns of an account record.
// Each field is independently optional.
type AccountRiskFields struct {
	RiskMedium     *Percent `json:"riskMedium,omitempty" yaml:"riskMedium"`
	RiskMediumHigh *Percent `json:"riskMediumHigh,omitempty" yaml:"riskMediumHigh"`
	RiskHigh       *Percent `json:"riskHigh,omitempty" yaml:"riskHigh"`
}

// GetRiskAllocationFromAccount reads the tolerance mix off an account. A
// missing medium share defaults to 100 and missing others to 0. Text that
// does not start with a number parses to NaN and is passed through.
func GetRiskAllocationFromAccount(account AccountRiskFields) RiskAllocation {
	return RiskAllocation{
		Medium:     parsePercent(account.RiskMedium, "100"),
		MediumHigh: parsePercent(account.RiskMediumHigh, "0"),
		High:       parsePercent(account.RiskHigh, "0"),
	}
}

func parsePercent(p *Percent, fallback string) float64 {
	if p == nil {
		return parseFloatPrefix(fallback)
	}
	return parseFloatPrefix(string(*p))
}

var numericPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseFloatPrefix parses the longest numeric prefix of s after leading
// whitespace, so "70%" reads as 70 and "abc" as NaN.
func parseFloatPrefix(s string) float64 {
	match := numericPrefix.FindString(strings.TrimLeft(s, " \t\n\r\v\f\u00a0\ufeff"))
	if match == "" {
		return math.NaN()
	}
	// ParseFloat reports overflow as ErrRange alongside ±Inf, which is the value we want.
	v, _ := strconv.ParseFloat(match, 64)
	return v
}

// FormatRiskAllocation renders the non-zero tiers, e.g. "70% Medium, 30% High".
// An all-zero mix renders as "100% Medium".
func FormatRiskAllocation(allocation RiskAllocation) string {
	var parts []string
	if allocation.Medium != 0 {
		parts = append(parts, formatNumber(allocation.Medium)+"% Medium")
	}
	if allocation.MediumHigh != 0 {
		parts = append(parts, formatNumber(allocation.MediumHigh)+"% Medium-High")
	}
	if allocation.High != 0 {
		parts = append(parts, formatNumber(allocation.High)+"% High")
	}
	if len(parts) == 0 {
		return "100% Medium"
	}
	return strings.Join(parts, ", ")
}

// formatNumber prints v in full, using the shortest form that reads back as v.
func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
