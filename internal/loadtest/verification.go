package loadtest

import (
	"context"
	"sort"

	"github.com/dzhang123/DynaCard/pkg/logger"
)

// shapeTally counts outcomes for one expected label.
type shapeTally struct {
	Matches    int
	Mismatches int
}

// verifyResults compares every retrieved label with the shape the card was
// drawn as and returns the per-shape tally.
func verifyResults(ctx context.Context, cfg *Config, cards []Card, results []StoredResult, stats *Stats) map[string]*shapeTally {
	tally := make(map[string]*shapeTally)
	for i, card := range cards {
		r := results[i]
		if r.ID == "" {
			continue
		}
		t := tally[card.Expected]
		if t == nil {
			t = &shapeTally{}
			tally[card.Expected] = t
		}

		switch {
		case r.ErrorCode != "":
			stats.Unclassified++
			t.Mismatches++
		case r.Label == card.Expected:
			stats.LabelMatches++
			t.Matches++
		default:
			stats.LabelMismatches++
			t.Mismatches++
			if cfg.Verbose {
				logger.Get().Warn(ctx, "label mismatch",
					logger.String("id", r.ID),
					logger.String("expected", card.Expected),
					logger.String("got", r.Label))
			}
		}
	}

	displayTally(ctx, tally)
	return tally
}

// displayTally logs the per-shape outcome in name order.
func displayTally(ctx context.Context, tally map[string]*shapeTally) {
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := tally[name]
		logger.Get().Info(ctx, "shape accuracy",
			logger.String("shape", name),
			logger.Int("matches", t.Matches),
			logger.Int("mismatches", t.Mismatches),
			logger.Float64("accuracy", percentage(t.Matches, t.Matches+t.Mismatches)))
	}
}

func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * percentageMultiplier
}
