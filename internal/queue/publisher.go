// Package queue hands newly stored records to the NLP pipeline through a
// Redis stream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

const (
	// RecordField holds the JSON-serialized record.
	RecordField = "record"
	// SourceField holds the record source id.
	SourceField = "source_id"
	// RefField holds the record external reference.
	RefField = "external_ref"
	// EnqueuedAtField holds the RFC 3339 enqueue timestamp.
	EnqueuedAtField = "enqueued_at"

	// DefaultStream is the stream the NLP pipeline consumes.
	DefaultStream = "legal:records"

	defaultMaxStreamLen      = 100000
	defaultConnectionTimeout = 2 * time.Second
)

// Config holds Redis stream settings.
type Config struct {
	Addr         string
	Password     string `json:"-"`
	DB           int
	Stream       string
	MaxStreamLen int64
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Publisher appends records to a capped stream.
type Publisher struct {
	client       *redis.Client
	stream       string
	maxStreamLen int64
	now          func() time.Time
}

// NewPublisher creates a Publisher. Zero values in cfg select defaults.
func NewPublisher(client *redis.Client, cfg Config) *Publisher {
	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}
	maxLen := cfg.MaxStreamLen
	if maxLen <= 0 {
		maxLen = defaultMaxStreamLen
	}

	return &Publisher{client: client, stream: stream, maxStreamLen: maxLen, now: time.Now}
}

// Stream returns the stream key.
func (p *Publisher) Stream() string {
	return p.stream
}

// Publish implements harvest.Publisher. All records go out in one pipeline.
func (p *Publisher) Publish(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	enqueuedAt := p.now().UTC().Format(time.RFC3339)

	pipe := p.client.Pipeline()
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to serialize record %s: %w", r.DedupKey(), err)
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxStreamLen,
			Approx: true,
			Values: map[string]any{
				RecordField:     string(data),
				SourceField:     r.SourceID,
				RefField:        r.ExternalRef,
				EnqueuedAtField: enqueuedAt,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	return nil
}
