package allocation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/aristath/backoffice/internal/modules/risk"
)

// ErrEmptyReview is returned when a review request has nothing to look at.
var ErrEmptyReview = errors.New("review request has neither targets nor holdings")

// ReviewRequest is what an account page sends for review: the account's
// tolerance fields, its target rows and, optionally, its current holdings.
type ReviewRequest struct {
	Account  risk.AccountRiskFields `json:"account" yaml:"account"`
	Targets  []TargetAllocation     `json:"targets" yaml:"targets"`
	Holdings []Holding              `json:"holdings" yaml:"holdings"`
}

// Review is the combined risk assessment and target comparison.
type Review struct {
	Assessment risk.Assessment `json:"assessment" msgpack:"assessment"`
	Comparison *Comparison     `json:"comparison,omitempty" msgpack:"comparison,omitempty"`
}

// ReviewService runs account reviews against a risk engine.
type ReviewService struct {
	engine *risk.Engine
	log    zerolog.Logger
}

// NewReviewService creates a new review service
func NewReviewService(engine *risk.Engine, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		engine: engine,
		log:    log.With().Str("service", "allocation_review").Logger(),
	}
}

// Review validates the targets against the account's blended limits and,
// when holdings are given, compares them with the targets.
func (s *ReviewService) Review(ctx context.Context, req ReviewRequest) (*Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Targets) == 0 && len(req.Holdings) == 0 {
		return nil, ErrEmptyReview
	}

	review := &Review{
		Assessment: s.engine.Assess(req.Account, TargetCategories(req.Targets)),
	}

	if len(req.Holdings) > 0 {
		comparison := CompareToTargets(req.Holdings, req.Targets, s.engine)
		review.Comparison = &comparison
	}

	event := s.log.Info()
	if !review.Assessment.Validation.IsValid {
		event = s.log.Warn()
	}
	event.
		Str("risk_allocation", review.Assessment.AllocationText).
		Int("targets", len(req.Targets)).
		Int("holdings", len(req.Holdings)).
		Int("violations", len(review.Assessment.Validation.Violations)).
		Int("warnings", len(review.Assessment.Validation.Warnings)).
		Float64("risk_score", review.Assessment.RiskScore).
		Msg("Allocation review completed")

	return review, nil
}

// TargetCategories projects target rows onto the category proposal the
// risk engine validates.
func TargetCategories(targets []TargetAllocation) []risk.CategoryAllocation {
	allocations := make([]risk.CategoryAllocation, 0, len(targets))
	for _, t := range targets {
		allocations = append(allocations, risk.CategoryAllocation{
			Category:         t.Category,
			TargetPercentage: t.TargetPercentage,
		})
	}
	return allocations
}
