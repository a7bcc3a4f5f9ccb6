package spider

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
)

// CrawlFunc is the fallible body of a spider's crawl.
type CrawlFunc func(ctx context.Context, w Window) ([]domain.Record, error)

// Run executes fn under the fail-soft contract: every error and panic is
// logged by tier and converted into an empty, non-nil result. Records that
// survive are filtered for mandatory fields and capped at w.MaxResults.
func Run(ctx context.Context, log logger.Logger, w Window, fn CrawlFunc) (records []domain.Record) {
	records = []domain.Record{}

	defer func() {
		if r := recover(); r != nil {
			log.Error("spider panicked", logger.Error(fmt.Errorf("%v", r)))
			records = []domain.Record{}
		}
	}()

	found, err := fn(ctx, w)
	if err != nil {
		LogFailure(ctx, log, err)
		return records
	}

	c := NewCollector(w.MaxResults)
	for i := range found {
		c.Add(found[i])
	}
	records = c.Records()

	log.Info("harvest completed",
		logger.Int("count", len(records)),
		logger.String("date_from", dates.FormatISO(w.From)),
		logger.String("date_to", dates.FormatISO(w.To)),
	)

	return records
}

// LogFailure logs err at the level its tier calls for. Failures of a run
// whose ctx is done are logged as cancellations whatever wraps them.
func LogFailure(ctx context.Context, log logger.Logger, err error) {
	var fe *fetch.Error
	var pe *ParseError

	switch {
	case ctx.Err() != nil:
		log.Warn("crawl cancelled", logger.Error(err))
	case errors.As(err, &fe):
		log.Error("transport failure",
			logger.URL(fe.URL),
			logger.String("error_type", string(fe.Type)),
			logger.Int("status_code", fe.StatusCode),
			logger.Error(err),
		)
	case errors.Is(err, ErrNoEntries):
		log.Notice("no entries found in response, possible schema change")
	case errors.As(err, &pe):
		log.Warn("malformed payload", logger.String("format", pe.Format), logger.Error(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn("crawl cancelled", logger.Error(err))
	default:
		log.Error("unexpected crawl failure", logger.Error(err))
	}
}
