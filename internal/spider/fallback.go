package spider

import (
	"context"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
)

// Strategy is one way of obtaining records from an unstable source.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) ([]domain.Record, error)
}

// Fallback tries strategies in order and returns the first non-empty result.
// A strategy that fails or yields nothing degrades to the next one; once a
// strategy returns records the rest are never invoked. When every strategy
// comes up empty the last error is returned, or ErrNoEntries.
func Fallback(ctx context.Context, log logger.Logger, strategies ...Strategy) ([]domain.Record, error) {
	var lastErr error

	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := s.Run(ctx)
		if err == nil && countValid(records) > 0 {
			return records, nil
		}

		if err != nil {
			lastErr = err
		}

		if i < len(strategies)-1 {
			fields := []logger.Field{logger.String("strategy", s.Name)}
			if err != nil {
				fields = append(fields, logger.Error(err))
			}
			log.Warn("strategy yielded no records, falling back", fields...)
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, ErrNoEntries
}

func countValid(records []domain.Record) int {
	n := 0
	for i := range records {
		if records[i].Valid() {
			n++
		}
	}
	return n
}
