// Package main is the riskcheck tool: it runs the account risk checks of the
// back office from the command line, for operators and for scripts that feed
// target allocations in from spreadsheets or exports.
//
// Configuration comes from the environment (and a .env file):
//   - LOG_LEVEL: debug, info, warn or error
//   - LOG_PRETTY: human-readable logs on stderr
//   - RISK_POLICY_FILE: optional YAML file overriding the built-in limits
//   - REPORT_FORMAT: json or msgpack, written to stdout
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/aristath/backoffice/internal/config"
	"github.com/aristath/backoffice/internal/modules/allocation"
	"github.com/aristath/backoffice/internal/modules/risk"
	"github.com/aristath/backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	policy := risk.DefaultPolicy()
	if cfg.RiskPolicyFile != "" {
		policy, err = risk.LoadPolicy(cfg.RiskPolicyFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RiskPolicyFile).Msg("Failed to load risk policy")
		}
		log.Debug().Str("path", cfg.RiskPolicyFile).Msg("Loaded risk policy")
	}

	engine := risk.NewEngineWithPolicy(policy, log)
	a := &app{
		engine:  engine,
		reviews: allocation.NewReviewService(engine, log),
		format:  cfg.ReportFormat,
		out:     os.Stdout,
		log:     log,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range a.commands() {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
