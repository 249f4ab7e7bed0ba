package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dzhang123/DynaCard/pkg/logger"
)

// httpClient wraps http.Client with context-aware helpers.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(cfg *Config) *httpClient {
	return &httpClient{client: &http.Client{Timeout: cfg.Timeout}}
}

// get performs a GET request and returns status and body.
func (c *httpClient) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// post performs a POST request with a JSON body and returns status and body.
func (c *httpClient) post(ctx context.Context, url string, body interface{}) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *httpClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, b, nil
}

type submitOutcome int

const (
	submitAccepted submitOutcome = iota
	submitDuplicate
	submitFailed
)

// submitCards posts every card with cfg.Workers concurrent requests.
func submitCards(ctx context.Context, cfg *Config, client *httpClient, cards []Card, stats *Stats) error {
	logger.Get().Info(ctx, "submitting cards", logger.Int("cards", len(cards)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed atomic.Int64
	url := cfg.BaseURL + "/cards"

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			switch submitCard(gctx, cfg, client, url, card) {
			case submitAccepted:
				accepted.Add(1)
			case submitDuplicate:
				duplicate.Add(1)
			default:
				failed.Add(1)
			}
			return gctx.Err()
		})
	}
	err := g.Wait()

	stats.CardsAccepted = int(accepted.Load())
	stats.CardsDuplicate = int(duplicate.Load())
	stats.CardsFailed = int(failed.Load())
	stats.CardsSubmitted = stats.CardsAccepted + stats.CardsDuplicate + stats.CardsFailed

	logger.Get().Info(ctx, "card submission completed",
		logger.Int("accepted", stats.CardsAccepted),
		logger.Int("duplicate", stats.CardsDuplicate),
		logger.Int("failed", stats.CardsFailed))
	return err
}

func submitCard(ctx context.Context, cfg *Config, client *httpClient, url string, card *Card) submitOutcome {
	status, body, err := client.post(ctx, url, card)
	if err != nil {
		if cfg.Verbose {
			logger.Get().Warn(ctx, "submit failed", logger.String("id", card.ID), logger.Error(err))
		}
		return submitFailed
	}

	var ack AckResponse
	switch status {
	case http.StatusAccepted:
		return submitAccepted
	case http.StatusOK:
		if json.Unmarshal(body, &ack) == nil && ack.Duplicate {
			return submitDuplicate
		}
		return submitFailed
	default:
		if cfg.Verbose {
			logger.Get().Warn(ctx, "submit rejected", logger.String("id", card.ID), logger.Int("status", status))
		}
		return submitFailed
	}
}
