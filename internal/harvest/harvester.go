// Package harvest runs spiders, hands their records to storage and the
// downstream queue, and tracks per-source state between runs.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

// Defaults for Config.
const (
	DefaultWorkers             = 4
	DefaultRunTimeout          = 10 * time.Minute
	DefaultEmptyAlertThreshold = 3
)

// ErrUnknownSource is reported for ids with no registered spider.
var ErrUnknownSource = errors.New("unknown source")

// Config tunes a Harvester.
type Config struct {
	Workers             int
	RunTimeout          time.Duration
	EmptyAlertThreshold int
	// Disabled sources are skipped by RunDue and by Run without explicit ids.
	Disabled map[string]bool
	// MaxResults overrides the spider default per source.
	MaxResults map[string]int
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.EmptyAlertThreshold <= 0 {
		c.EmptyAlertThreshold = DefaultEmptyAlertThreshold
	}
}

// Harvester dispatches spiders with bounded concurrency.
type Harvester struct {
	cfg       Config
	sources   Sources
	states    StateStore
	store     Store
	publisher Publisher
	metrics   Recorder
	log       logger.Logger
	now       func() time.Time
	newRunID  func() string
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithStore sets the record store.
func WithStore(s Store) Option {
	return func(h *Harvester) { h.store = s }
}

// WithPublisher sets the downstream publisher.
func WithPublisher(p Publisher) Option {
	return func(h *Harvester) { h.publisher = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(h *Harvester) {
		if r != nil {
			h.metrics = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) { h.now = now }
}

// New creates a Harvester. A nil StateStore is replaced by an in-memory one.
func New(cfg Config, sources Sources, states StateStore, log logger.Logger, opts ...Option) *Harvester {
	cfg.SetDefaults()
	if states == nil {
		states = NewMemoryStateStore()
	}
	if log == nil {
		log = logger.NewNop()
	}

	h := &Harvester{
		cfg:      cfg,
		sources:  sources,
		states:   states,
		metrics:  nopRecorder{},
		log:      log,
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// States returns the state of every source that has run.
func (h *Harvester) States(ctx context.Context) ([]*domain.SourceState, error) {
	return h.states.List(ctx)
}

// Reset clears the sync time and empty-run streak of sourceID so the next
// RunDue harvests it.
func (h *Harvester) Reset(ctx context.Context, sourceID string) error {
	if _, ok := h.sources.Get(sourceID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, sourceID)
	}

	if _, err := h.states.GetOrCreate(ctx, sourceID); err != nil {
		return fmt.Errorf("load state for %s: %w", sourceID, err)
	}
	if err := h.states.Reset(ctx, sourceID); err != nil {
		return fmt.Errorf("reset state for %s: %w", sourceID, err)
	}

	h.metrics.SetConsecutiveEmpty(sourceID, 0)
	h.log.Info("source state reset", logger.Source(sourceID))
	return nil
}

// Enabled returns the ids of every registered source not disabled in config.
func (h *Harvester) Enabled() []string {
	all := h.sources.All()
	ids := make([]string, 0, len(all))
	for _, s := range all {
		if !h.cfg.Disabled[s.ID()] {
			ids = append(ids, s.ID())
		}
	}
	return ids
}

// Due returns the enabled sources whose frequency interval has elapsed since
// their last sync. Sources that never ran are always due.
func (h *Harvester) Due(ctx context.Context) ([]string, error) {
	now := h.now()

	var due []string
	for _, id := range h.Enabled() {
		s, _ := h.sources.Get(id)

		st, err := h.states.GetOrCreate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load state for %s: %w", id, err)
		}

		if s.Frequency().IsDue(st.LastSync(), now) {
			due = append(due, id)
			continue
		}

		h.log.Debug("source not due yet",
			logger.Source(id),
			logger.Time("last_sync_at", st.LastSync()),
		)
	}

	return due, nil
}

// RunDue harvests every due source with default options.
func (h *Harvester) RunDue(ctx context.Context) Report {
	ids, err := h.Due(ctx)
	if err != nil {
		h.log.Error("failed to determine due sources", logger.Error(err))
		return h.emptyReport()
	}

	if len(ids) == 0 {
		h.log.Info("no sources due")
		return h.emptyReport()
	}

	return h.Run(ctx, ids, spider.Options{})
}

// Run harvests ids concurrently, at most cfg.Workers at a time, within
// cfg.RunTimeout. An empty ids list means every enabled source. Failures of
// one source never affect the others.
func (h *Harvester) Run(ctx context.Context, ids []string, opts spider.Options) Report {
	if len(ids) == 0 {
		ids = h.Enabled()
	}

	report := Report{
		RunID:     h.newRunID(),
		StartedAt: h.now(),
		Sources:   make([]SourceReport, len(ids)),
	}
	log := h.log.With(logger.RunID(report.RunID))

	runCtx, cancel := context.WithTimeout(ctx, h.cfg.RunTimeout)
	defer cancel()

	log.Info("harvest run started", logger.Strings("sources", ids), logger.Int("workers", h.cfg.Workers))

	sem := make(chan struct{}, h.cfg.Workers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				report.Sources[i] = SourceReport{SourceID: id, Error: runCtx.Err().Error()}
				return
			}

			report.Sources[i] = h.runSource(runCtx, log.With(logger.Source(id)), id, opts)
		}()
	}

	wg.Wait()
	report.FinishedAt = h.now()

	log.Info("harvest run completed",
		logger.Int("records", report.TotalRecords()),
		logger.Int("created", report.TotalCreated()),
		logger.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	return report
}

func (h *Harvester) runSource(ctx context.Context, log logger.Logger, id string, opts spider.Options) SourceReport {
	sr := SourceReport{SourceID: id}

	s, ok := h.sources.Get(id)
	if !ok {
		log.Warn("no spider registered for source")
		sr.Error = ErrUnknownSource.Error()
		return sr
	}

	if opts.MaxResults <= 0 {
		opts.MaxResults = h.cfg.MaxResults[id]
	}

	start := h.now()
	records := s.Crawl(ctx, opts)
	sr.Records = len(records)
	sr.Items = records

	created, sinkErr := h.deliver(ctx, log, id, records, &sr)
	sr.Created = len(created)
	sr.Duration = h.now().Sub(start)

	result := domain.RunResult{At: h.now(), Records: len(records), New: len(created)}
	if sinkErr != nil {
		msg := sinkErr.Error()
		result.Err = &msg
		sr.Error = msg
	}

	st, err := h.states.RecordRun(ctx, id, result)
	if err != nil {
		log.Error("failed to record source state", logger.Error(err))
	} else {
		sr.ConsecutiveEmpty = st.ConsecutiveEmpty
		h.metrics.SetConsecutiveEmpty(id, st.ConsecutiveEmpty)
		if st.ConsecutiveEmpty >= h.cfg.EmptyAlertThreshold {
			log.Warn("source returned no records on consecutive runs, markup or schema may have changed",
				logger.Int("consecutive_empty", st.ConsecutiveEmpty),
			)
		}
	}

	h.metrics.ObserveHarvest(id, sr.Records, sr.Created, sr.Duplicates, sr.Duration)

	return sr
}

// deliver stores records and publishes the new ones. Without a store every
// record counts as new. A store failure that still reports created records
// does not keep those records from being published.
func (h *Harvester) deliver(
	ctx context.Context, log logger.Logger, id string, records []domain.Record, sr *SourceReport,
) ([]domain.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	created := records
	var storeErr error
	if h.store != nil {
		res, err := h.store.Store(ctx, records)
		created = res.Created
		sr.Duplicates = res.Duplicates
		if err != nil {
			log.Error("failed to store records", logger.Error(err), logger.Int("created", len(created)))
			h.metrics.IncSinkError(id, "store")
			storeErr = fmt.Errorf("store: %w", err)
		}
	}

	if h.publisher == nil || len(created) == 0 {
		return created, storeErr
	}

	if err := h.publisher.Publish(ctx, created); err != nil {
		log.Error("failed to publish records", logger.Error(err))
		h.metrics.IncSinkError(id, "publish")
		return created, errors.Join(storeErr, fmt.Errorf("publish: %w", err))
	}

	return created, storeErr
}

func (h *Harvester) emptyReport() Report {
	now := h.now()
	return Report{RunID: h.newRunID(), StartedAt: now, FinishedAt: now, Sources: []SourceReport{}}
}
