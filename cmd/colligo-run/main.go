// -----------------------------------------------------------------------
// Last Modified: Tuesday, 18th August 2026 10:05:12 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// colligo-run executes one scrape orchestration from the command line:
// targets YAML in, results CSV out, summary on the log. No server, no run
// registry; exit code carries the outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/accounts"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/export"
	"github.com/ternarybob/colligo/internal/scrape"
	"github.com/ternarybob/colligo/internal/services/events"
	"github.com/ternarybob/colligo/internal/upstream"
)

var (
	targetsFile = flag.String("targets", "", "Targets YAML file with the profile URLs to scrape (required)")
	configFile  = flag.String("config", "", "Configuration file path")
	outputFile  = flag.String("output", "results.csv", "CSV file the aggregated results are written to")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("colligo-run version %s\n", common.LoadVersionFromFile())
		os.Exit(0)
	}

	if *targetsFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: colligo-run -targets targets.yaml [-config colligo.toml] [-output results.csv]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// .env is optional; environment variables may be set by the shell
	_ = godotenv.Load()

	config, err := common.LoadFromFile(*configFile)
	if err != nil {
		arbor.NewLogger().Fatal().Str("path", *configFile).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	os.Exit(run(config, logger))
}

// run performs the orchestration and maps the outcome to an exit code:
// 0 on any results, 1 on failure or an empty aggregate.
func run(config *common.Config, logger arbor.ILogger) int {
	targets, err := LoadTargets(*targetsFile)
	if err != nil {
		logger.Error().Err(err).Str("targets", *targetsFile).Msg("Failed to load targets")
		return 1
	}

	store := accounts.NewCSVStore(config.Accounts.File, logger)
	client := upstream.NewClient(
		config.Upstream.BaseURL,
		upstream.WithTimeout(config.Upstream.TimeoutDuration()),
		upstream.WithRateLimit(config.Upstream.RateLimitPerSecond),
		upstream.WithLogger(logger),
	)
	eventService := events.NewService(logger)
	defer eventService.Close()

	orchestrator := scrape.NewOrchestrator(config, store, client, eventService, logger)

	runID := common.NewRunID()
	logger.Info().
		Str("run_id", runID).
		Str("targets", *targetsFile).
		Int("urls", len(targets.URLs)).
		Msg("Starting one-shot scrape run")

	opts := scrape.RunOptions{
		ChunkSize:     targets.ChunkSize,
		MaxConcurrent: targets.MaxConcurrent,
	}

	report, err := orchestrator.Execute(context.Background(), runID, targets.URLs, opts)
	if err != nil {
		logger.Error().Err(err).Str("run_id", runID).Msg("Scrape run aborted")
		return 1
	}

	logger.Info().
		Str("run_id", runID).
		Str("successful_batches", fmt.Sprintf("%d/%d", report.SuccessfulBatches, report.BatchCount)).
		Int("results", len(report.Results)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Scrape run finished")

	if len(report.Results) == 0 {
		logger.Warn().Str("run_id", runID).Msg("Run produced no results; nothing to write")
		return 1
	}

	if err := export.WriteResultsCSV(*outputFile, report.Results); err != nil {
		logger.Error().Err(err).Str("output", *outputFile).Msg("Failed to write results")
		return 1
	}

	logger.Info().
		Str("output", *outputFile).
		Int("rows", len(report.Results)).
		Msg("Results written")

	return 0
}
