package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/backoffice/internal/config"
	"github.com/aristath/backoffice/internal/modules/allocation"
	"github.com/aristath/backoffice/internal/modules/risk"
)

func newTestApp(format string) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	engine := risk.NewEngine(zerolog.Nop())
	return &app{
		engine:  engine,
		reviews: allocation.NewReviewService(engine, zerolog.Nop()),
		format:  format,
		out:     &out,
		log:     zerolog.Nop(),
	}, &out
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f)
}

func writeRequest(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLimitsCmd(t *testing.T) {
	a, out := newTestApp(config.FormatJSON)

	status := run(t, &limitsCmd{app: a}, "-medium", "70", "-high", "30")
	require.Equal(t, subcommands.ExitSuccess, status)

	var report limitsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "70% Medium, 30% High", report.AllocationText)
	assert.InDelta(t, 16.0, report.Limits.DoubleLongETF, 1e-9)
	assert.InDelta(t, 36.0, report.Limits.Security, 1e-9)
	assert.InDelta(t, 56.0, report.Limits.SingleETF, 1e-9)
}

func TestLimitsCmd_RejectsArguments(t *testing.T) {
	a, _ := newTestApp(config.FormatJSON)
	assert.Equal(t, subcommands.ExitUsageError, run(t, &limitsCmd{app: a}, "extra"))
}

func TestValidateCmd_YAMLRequest(t *testing.T) {
	a, out := newTestApp(config.FormatJSON)
	path := writeRequest(t, "request.yaml", `
account:
  riskMedium: "100"
targets:
  - ticker: QLD
    category: double_long_etf
    targetPercentage: 15
  - ticker: VTI
    category: basket_etf
    targetPercentage: 85
`)

	status := run(t, &validateCmd{app: a}, path)
	assert.Equal(t, subcommands.ExitFailure, status)

	var assessment risk.Assessment
	require.NoError(t, json.Unmarshal(out.Bytes(), &assessment))
	assert.False(t, assessment.Validation.IsValid)
	require.Len(t, assessment.Validation.Violations, 1)
	assert.Equal(t, 5.0, assessment.Validation.Violations[0].ExceededBy)
}

func TestValidateCmd_JSONRequestWithinLimits(t *testing.T) {
	a, out := newTestApp(config.FormatJSON)
	path := writeRequest(t, "request.json", `{
  "account": {"riskMedium": 60, "riskHigh": "40"},
  "targets": [
    {"ticker": "VTI", "category": "basket_etf", "targetPercentage": 80},
    {"ticker": "AAPL", "category": "security", "targetPercentage": 20}
  ]
}`)

	status := run(t, &validateCmd{app: a}, path)
	assert.Equal(t, subcommands.ExitSuccess, status)

	var assessment risk.Assessment
	require.NoError(t, json.Unmarshal(out.Bytes(), &assessment))
	assert.True(t, assessment.Validation.IsValid)
	assert.Equal(t, "60% Medium, 40% High", assessment.AllocationText)
}

func TestValidateCmd_MissingFile(t *testing.T) {
	a, _ := newTestApp(config.FormatJSON)
	assert.Equal(t, subcommands.ExitUsageError, run(t, &validateCmd{app: a}, filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Equal(t, subcommands.ExitUsageError, run(t, &validateCmd{app: a}))
}

func TestReviewCmd_Msgpack(t *testing.T) {
	a, out := newTestApp(config.FormatMsgpack)
	path := writeRequest(t, "request.yaml", `
account:
  riskMedium: 70
  riskHigh: 30
targets:
  - {ticker: VTI, category: basket_etf, targetPercentage: 50}
  - {ticker: AAPL, category: security, targetPercentage: 30}
  - {ticker: XLK, category: single_etf, targetPercentage: 20}
holdings:
  - {ticker: VTI, category: basket_etf, marketValue: "6000.00", returnPct: 10}
  - {ticker: AAPL, category: security, marketValue: 3000, returnPct: -5}
  - {ticker: QLD, category: double_long_etf, marketValue: 1000, returnPct: 20}
`)

	status := run(t, &reviewCmd{app: a}, path)
	require.Equal(t, subcommands.ExitSuccess, status)

	var review allocation.Review
	require.NoError(t, msgpack.Unmarshal(out.Bytes(), &review))
	require.NotNil(t, review.Comparison)
	assert.Equal(t, 10000.0, review.Comparison.TotalValue)
	assert.InDelta(t, 6.5, review.Comparison.WeightedReturn, 1e-9)
	assert.Len(t, review.Comparison.Tickers, 4)
}

func TestReviewCmd_EmptyRequest(t *testing.T) {
	a, _ := newTestApp(config.FormatJSON)
	path := writeRequest(t, "empty.yaml", "account: {}\n")

	assert.Equal(t, subcommands.ExitUsageError, run(t, &reviewCmd{app: a}, path))
}

func TestWriteReport_NaNNeedsMsgpack(t *testing.T) {
	a, _ := newTestApp(config.FormatJSON)
	assessment := a.engine.Assess(risk.AccountRiskFields{RiskMedium: risk.PercentOf("n/a")}, nil)

	err := a.writeReport(assessment)
	assert.ErrorContains(t, err, "REPORT_FORMAT=msgpack")

	b, _ := newTestApp(config.FormatMsgpack)
	assert.NoError(t, b.writeReport(assessment))
}
