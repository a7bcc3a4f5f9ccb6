package harvest

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

// Sources resolves spiders by id.
type Sources interface {
	Get(id string) (spider.Spider, bool)
	All() []spider.Spider
}

// StoreResult reports which records storage accepted as new.
type StoreResult struct {
	Created    []domain.Record
	Duplicates int
}

// Store persists records, deduplicating on (source_id, external_ref).
type Store interface {
	Store(ctx context.Context, records []domain.Record) (StoreResult, error)
}

// Publisher hands newly stored records to downstream processing.
type Publisher interface {
	Publish(ctx context.Context, records []domain.Record) error
}

// StateStore persists per-source harvest state.
type StateStore interface {
	GetOrCreate(ctx context.Context, sourceID string) (*domain.SourceState, error)
	RecordRun(ctx context.Context, sourceID string, result domain.RunResult) (*domain.SourceState, error)
	List(ctx context.Context) ([]*domain.SourceState, error)
	Reset(ctx context.Context, sourceID string) error
}

// Recorder receives harvest metrics.
type Recorder interface {
	ObserveHarvest(sourceID string, records, created, duplicates int, took time.Duration)
	IncSinkError(sourceID, sink string)
	SetConsecutiveEmpty(sourceID string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveHarvest(string, int, int, int, time.Duration) {}
func (nopRecorder) IncSinkError(string, string)                         {}
func (nopRecorder) SetConsecutiveEmpty(string, int)                     {}
