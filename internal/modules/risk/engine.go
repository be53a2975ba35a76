package risk

import (
	"math"

	"github.com/rs/zerolog"
)

// Assessment bundles everything the account pages show about a proposal.
type Assessment struct {
	Allocation     RiskAllocation   `json:"allocation" msgpack:"allocation"`
	AllocationText string           `json:"allocationText" msgpack:"allocationText"`
	Limits         RiskLimits       `json:"limits" msgpack:"limits"`
	Validation     ValidationResult `json:"validation" msgpack:"validation"`
	RiskScore      float64          `json:"riskScore" msgpack:"riskScore"`
	RiskLabel      string           `json:"riskLabel" msgpack:"riskLabel"`
	RiskColor      string           `json:"riskColor" msgpack:"riskColor"`
}

// Engine applies a Policy and logs what it finds. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	policy Policy
	log    zerolog.Logger
}

// NewEngine creates an engine over the built-in policy.
func NewEngine(log zerolog.Logger) *Engine {
	return NewEngineWithPolicy(DefaultPolicy(), log)
}

// NewEngineWithPolicy creates an engine over a custom policy, e.g. one from
// LoadPolicy. The engine keeps its own copy, so later changes to policy do
// not reach it.
func NewEngineWithPolicy(policy Policy, log zerolog.Logger) *Engine {
	return &Engine{
		policy: policy.clone(),
		log:    log.With().Str("component", "risk_engine").Logger(),
	}
}

// BlendedLimits interpolates the policy's tier limits by the allocation.
func (e *Engine) BlendedLimits(allocation RiskAllocation) RiskLimits {
	return e.policy.BlendedLimits(allocation)
}

// Validate checks a proposal and logs violations and warnings.
func (e *Engine) Validate(allocations []CategoryAllocation, riskAllocation RiskAllocation) ValidationResult {
	if hasNaN(riskAllocation) {
		e.log.Warn().
			Float64("medium", riskAllocation.Medium).
			Float64("medium_high", riskAllocation.MediumHigh).
			Float64("high", riskAllocation.High).
			Msg("Risk allocation contains non-numeric values, limits will not be enforced")
	}

	result := e.policy.ValidateRiskLimits(allocations, riskAllocation)

	for _, v := range result.Violations {
		e.log.Debug().
			Str("category", string(v.Category)).
			Float64("total", v.CurrentPercentage).
			Float64("max_allowed", v.MaxAllowed).
			Float64("exceeded_by", v.ExceededBy).
			Msg("Risk limit exceeded")
	}
	for _, w := range result.Warnings {
		e.log.Debug().
			Str("category", string(w.Category)).
			Float64("total", w.CurrentPercentage).
			Float64("max_allowed", w.MaxAllowed).
			Msg("Risk limit approaching")
	}

	e.log.Debug().
		Int("entries", len(allocations)).
		Bool("valid", result.IsValid).
		Int("violations", len(result.Violations)).
		Int("warnings", len(result.Warnings)).
		Msg("Validated target allocation")

	return result
}

// PortfolioRiskScore scores a proposal under the engine's policy.
func (e *Engine) PortfolioRiskScore(allocations []CategoryAllocation) float64 {
	return e.policy.PortfolioRiskScore(allocations)
}

// Assess runs the full account check: parse the tolerance mix, blend the
// limits, validate the proposal and score it.
func (e *Engine) Assess(account AccountRiskFields, allocations []CategoryAllocation) Assessment {
	allocation := GetRiskAllocationFromAccount(account)
	score := e.PortfolioRiskScore(allocations)

	return Assessment{
		Allocation:     allocation,
		AllocationText: FormatRiskAllocation(allocation),
		Limits:         e.BlendedLimits(allocation),
		Validation:     e.Validate(allocations, allocation),
		RiskScore:      score,
		RiskLabel:      GetRiskScoreLabel(score),
		RiskColor:      GetRiskScoreColor(score),
	}
}

func hasNaN(a RiskAllocation) bool {
	return math.IsNaN(a.Medium) || math.IsNaN(a.MediumHigh) || math.IsNaN(a.High)
}
