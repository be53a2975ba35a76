package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/aristath/backoffice/internal/config"
	"github.com/aristath/backoffice/internal/modules/allocation"
	"github.com/aristath/backoffice/internal/modules/risk"
)

// app carries what every sub-command needs.
type app struct {
	engine  *risk.Engine
	reviews *allocation.ReviewService
	format  string
	out     io.Writer
	log     zerolog.Logger
}

func (a *app) commands() []subcommands.Command {
	return []subcommands.Command{
		&limitsCmd{app: a},
		&validateCmd{app: a},
		&reviewCmd{app: a},
	}
}

// writeReport encodes v to the configured output.
func (a *app) writeReport(v interface{}) error {
	switch a.format {
	case config.FormatMsgpack:
		return msgpack.NewEncoder(a.out).Encode(v)
	default:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode report (non-numeric risk values cannot be written as JSON, try REPORT_FORMAT=msgpack): %w", err)
		}
		return nil
	}
}

// readRequest loads a review request. JSON is valid YAML, so one decoder serves both.
func readRequest(path string) (allocation.ReviewRequest, error) {
	var req allocation.ReviewRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse request file: %w", err)
	}
	return req, nil
}

// --- limitsCmd ---

type limitsCmd struct {
	app        *app
	medium     float64
	mediumHigh float64
	high       float64
}

type limitsReport struct {
	Allocation     risk.RiskAllocation `json:"allocation" msgpack:"allocation"`
	AllocationText string              `json:"allocationText" msgpack:"allocationText"`
	Limits         risk.RiskLimits     `json:"limits" msgpack:"limits"`
}

func (*limitsCmd) Name() string { return "limits" }
func (*limitsCmd) Synopsis() string { return "prints the blended exposure limits for a risk tolerance mix" }
func (*limitsCmd) Usage() string {
	return `limits [-medium N] [-medium-high N] [-high N]

Blends the per-tier exposure limits by the given percentages.
`
}

func (c *limitsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.medium, "medium", 100, "Percentage of the mandate at medium risk tolerance.")
	f.Float64Var(&c.mediumHigh, "medium-high", 0, "Percentage of the mandate at medium-high risk tolerance.")
	f.Float64Var(&c.high, "high", 0, "Percentage of the mandate at high risk tolerance.")
}

func (c *limitsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: limits takes no arguments.")
		return subcommands.ExitUsageError
	}

	mix := risk.RiskAllocation{Medium: c.medium, MediumHigh: c.mediumHigh, High: c.high}
	if sum := c.medium + c.mediumHigh + c.high; sum != 100 {
		c.app.log.Warn().Float64("sum", sum).Msg("Risk tolerance percentages do not sum to 100")
	}

	report := limitsReport{
		Allocation:     mix,
		AllocationText: risk.FormatRiskAllocation(mix),
		Limits:         c.app.engine.BlendedLimits(mix),
	}
	if err := c.app.writeReport(report); err != nil {
		c.app.log.Error().Err(err).Msg("Failed to write report")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- validateCmd ---

type validateCmd struct {
	app *app
}

func (*validateCmd) Name() string { return "validate" }
func (*validateCmd) Synopsis() string {
	return "validates target allocations against an account's risk limits"
}
func (*validateCmd) Usage() string {
	return `validate <request_file>

Reads a YAML or JSON request with "account" and "targets" and prints the risk
assessment. Exits with status 1 when any limit is exceeded.
`
}
func (*validateCmd) SetFlags(*flag.FlagSet) {}

func (c *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: validate takes exactly one request file.")
		return subcommands.ExitUsageError
	}

	req, err := readRequest(f.Arg(0))
	if err != nil {
		c.app.log.Error().Err(err).Str("path", f.Arg(0)).Msg("Failed to load request")
		return subcommands.ExitUsageError
	}

	assessment := c.app.engine.Assess(req.Account, allocation.TargetCategories(req.Targets))
	if err := c.app.writeReport(assessment); err != nil {
		c.app.log.Error().Err(err).Msg("Failed to write report")
		return subcommands.ExitFailure
	}

	if !assessment.Validation.IsValid {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- reviewCmd ---

type reviewCmd struct {
	app *app
}

func (*reviewCmd) Name() string { return "review" }
func (*reviewCmd) Synopsis() string {
	return "validates targets and compares them with current holdings"
}
func (*reviewCmd) Usage() string {
	return `review <request_file>

Reads a YAML or JSON request with "account", "targets" and "holdings" and prints
the risk assessment together with the target comparison. Exits with status 1
when any limit is exceeded.
`
}
func (*reviewCmd) SetFlags(*flag.FlagSet) {}

func (c *reviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: review takes exactly one request file.")
		return subcommands.ExitUsageError
	}

	req, err := readRequest(f.Arg(0))
	if err != nil {
		c.app.log.Error().Err(err).Str("path", f.Arg(0)).Msg("Failed to load request")
		return subcommands.ExitUsageError
	}

	review, err := c.app.reviews.Review(ctx, req)
	if errors.Is(err, allocation.ErrEmptyReview) {
		fmt.Fprintln(os.Stderr, "Error: the request has neither targets nor holdings.")
		return subcommands.ExitUsageError
	}
	if err != nil {
		c.app.log.Error().Err(err).Msg("Review failed")
		return subcommands.ExitFailure
	}

	if err := c.app.writeReport(review); err != nil {
		c.app.log.Error().Err(err).Msg("Failed to write report")
		return subcommands.ExitFailure
	}

	if !review.Assessment.Validation.IsValid {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
