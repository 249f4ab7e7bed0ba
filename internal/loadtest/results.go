package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dzhang123/DynaCard/pkg/logger"
)

// retrieveResults polls GET /cards/{id} for every card until its result is
// stored or the wait deadline passes. Missing results stay zero valued.
func retrieveResults(ctx context.Context, cfg *Config, client *httpClient, cards []Card, stats *Stats) ([]StoredResult, error) {
	logger.Get().Info(ctx, "retrieving results", logger.Int("cards", len(cards)))

	waitCtx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	results := make([]StoredResult, len(cards))
	var retrieved, missing atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)
	for i := range cards {
		g.Go(func() error {
			r, err := waitForResult(waitCtx, cfg, client, cards[i].ID)
			if err != nil {
				missing.Add(1)
				if cfg.Verbose {
					logger.Get().Warn(ctx, "result not retrieved", logger.String("id", cards[i].ID), logger.Error(err))
				}
				return nil
			}
			results[i] = r
			retrieved.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats.ResultsRetrieved = int(retrieved.Load())
	stats.ResultsMissing = int(missing.Load())
	if stats.ResultsRetrieved == 0 && len(cards) > 0 {
		return results, fmt.Errorf("none of %d results were stored", len(cards))
	}
	return results, ctx.Err()
}

func waitForResult(ctx context.Context, cfg *Config, client *httpClient, id string) (StoredResult, error) {
	url := cfg.BaseURL + "/cards/" + id
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, body, err := client.get(ctx, url)
		switch {
		case err != nil && ctx.Err() != nil:
			return StoredResult{}, ctx.Err()
		case err != nil:
			return StoredResult{}, err
		case status == http.StatusOK:
			var r StoredResult
			if err := json.Unmarshal(body, &r); err != nil {
				return StoredResult{}, fmt.Errorf("decode result %s: %w", id, err)
			}
			return r, nil
		case status != http.StatusNotFound:
			return StoredResult{}, fmt.Errorf("result %s: status %d", id, status)
		}

		select {
		case <-ctx.Done():
			return StoredResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// listWells fetches the history of every well and returns how many
// results the service reported in total.
func listWells(ctx context.Context, cfg *Config, client *httpClient, stats *Stats) (int, error) {
	total := 0
	for w := 0; w < cfg.Wells; w++ {
		url := fmt.Sprintf("%s/wells/%s/cards?limit=%d", cfg.BaseURL, wellID(w), historyLimit)
		status, body, err := client.get(ctx, url)
		if err != nil {
			return total, fmt.Errorf("well %s history: %w", wellID(w), err)
		}
		if status != http.StatusOK {
			return total, fmt.Errorf("well %s history: status %d", wellID(w), status)
		}
		var page struct {
			Results []StoredResult `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return total, fmt.Errorf("decode well %s history: %w", wellID(w), err)
		}
		total += len(page.Results)
		stats.WellsListed++
	}
	return total, nil
}
