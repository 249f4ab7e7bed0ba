package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dzhang123/DynaCard/pkg/logger"
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg)

	logger.Get().Info(ctx, "starting dynacard load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("cards", cfg.NumCards),
		logger.Int("wells", cfg.Wells),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Float64("noise", cfg.Noise))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, cfg, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate cards
	cards := generateCards(ctx, cfg, stats)

	// Step 3: Submit cards concurrently
	if err := submitCards(ctx, cfg, client, cards, stats); err != nil {
		return stats, fmt.Errorf("card submission failed: %w", err)
	}

	// Step 4: Wait for the workers and fetch every result
	results, err := retrieveResults(ctx, cfg, client, cards, stats)
	if err != nil {
		return stats, fmt.Errorf("result retrieval failed: %w", err)
	}

	// Step 5: Verify labels
	verifyResults(ctx, cfg, cards, results, stats)

	// Step 6: Cross-check the well histories
	listed, err := listWells(ctx, cfg, client, stats)
	if err != nil {
		return stats, fmt.Errorf("well history failed: %w", err)
	}
	logger.Get().Info(ctx, "well histories listed", logger.Int("wells", stats.WellsListed), logger.Int("results", listed))

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "load test completed")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.NumCards <= 0 {
		cfg.NumCards = DefaultNumCards
	}
	if cfg.Wells <= 0 {
		cfg.Wells = DefaultWells
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config, client *httpClient) error {
	logger.Get().Info(ctx, "checking service health")

	status, _, err := client.get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// Any 200 is healthy; the service answers with its Prometheus metrics.
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var cardsPerSecond float64
	if stats.Duration > 0 {
		cardsPerSecond = float64(stats.CardsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("cardsGenerated", stats.CardsGenerated),
		logger.Int("cardsSubmitted", stats.CardsSubmitted),
		logger.Int("cardsAccepted", stats.CardsAccepted),
		logger.Int("cardsDuplicate", stats.CardsDuplicate),
		logger.Int("cardsFailed", stats.CardsFailed),
		logger.Int("resultsRetrieved", stats.ResultsRetrieved),
		logger.Int("resultsMissing", stats.ResultsMissing),
		logger.Int("unclassified", stats.Unclassified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", percentage(stats.CardsAccepted, stats.CardsSubmitted)),
		logger.Float64("labelAccuracy", percentage(stats.LabelMatches, stats.ResultsRetrieved)),
		logger.Float64("cardsPerSecond", cardsPerSecond))
}
