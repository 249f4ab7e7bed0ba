package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dzhang123/DynaCard/internal/cardgen"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

// generateCards draws cfg.NumCards cards, cycling through the reference
// shapes and spreading them round-robin over the wells.
func generateCards(ctx context.Context, cfg *Config, stats *Stats) []Card {
	logger.Get().Info(ctx, "generating cards",
		logger.Int("cards", cfg.NumCards),
		logger.Int("wells", cfg.Wells))

	gen := cardgen.New(cardgen.WithNoise(cfg.Noise, cfg.Seed))
	shapes := cardgen.Shapes()
	base := time.Now().UTC().Truncate(time.Second)

	cards := make([]Card, cfg.NumCards)
	for i := range cards {
		s := shapes[i%len(shapes)]
		cards[i] = Card{
			ID:           uuid.NewString(),
			WellID:       wellID(i % cfg.Wells),
			Timestamp:    base.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
			DeviceSerial: "LOAD-DEV",
			SensorSerial: "LOAD-SEN",
			Samples:      model.Samples(gen.Samples(s)),
			Expected:     s.Name,
		}
	}

	stats.CardsGenerated = len(cards)
	logger.Get().Info(ctx, "generated cards successfully", logger.Int("count", len(cards)))
	return cards
}

func wellID(n int) string { return fmt.Sprintf("LOAD-%03d", n) }
