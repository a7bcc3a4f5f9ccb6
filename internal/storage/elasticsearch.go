// Package storage indexes harvested records in Elasticsearch, deduplicating
// on (source_id, external_ref).
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
)

// DefaultIndex is the records index name.
const DefaultIndex = "legal_resolutions"

// ErrBulkItems is returned when some documents of a bulk request failed for
// reasons other than already existing.
var ErrBulkItems = errors.New("bulk item failures")

// Config holds Elasticsearch connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// NewClient creates an Elasticsearch client.
func NewClient(cfg Config) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

// RecordStore writes records with the bulk create action, so an existing
// document id is reported as a conflict instead of being overwritten.
type RecordStore struct {
	client *es.Client
	index  string
	log    logger.Logger
	now    func() time.Time
}

// NewRecordStore creates a RecordStore on index, DefaultIndex when empty.
func NewRecordStore(client *es.Client, index string, log logger.Logger) *RecordStore {
	if index == "" {
		index = DefaultIndex
	}
	return &RecordStore{client: client, index: index, log: log, now: time.Now}
}

// EnsureIndex creates the records index when it does not exist.
func (s *RecordStore) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(IndexMapping())
	if err != nil {
		return err
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	s.log.Info("Created records index", logger.String("index", s.index))
	return nil
}

type bulkAction struct {
	Create bulkMeta `json:"create"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// Store implements harvest.Store. Records already in the index count as
// duplicates. Item failures are logged and reported as ErrBulkItems next to
// the records that were created.
func (s *RecordStore) Store(ctx context.Context, records []domain.Record) (harvest.StoreResult, error) {
	if len(records) == 0 {
		return harvest.StoreResult{}, nil
	}

	now := s.now()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(bulkAction{Create: bulkMeta{Index: s.index, ID: r.DedupKey()}}); err != nil {
			return harvest.StoreResult{}, err
		}
		if err := enc.Encode(NewDocument(r, now)); err != nil {
			return harvest.StoreResult{}, err
		}
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()), s.client.Bulk.WithContext(ctx))
	if err != nil {
		return harvest.StoreResult{}, fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return harvest.StoreResult{}, fmt.Errorf("error executing bulk request: %s", res.String())
	}

	var br bulkResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&br); decodeErr != nil {
		return harvest.StoreResult{}, fmt.Errorf("failed to decode bulk response: %w", decodeErr)
	}
	if len(br.Items) != len(records) {
		return harvest.StoreResult{}, fmt.Errorf("bulk response has %d items for %d records", len(br.Items), len(records))
	}

	var (
		result harvest.StoreResult
		failed int
	)
	for i, item := range br.Items {
		op := item["create"]
		switch {
		case op.Status >= http.StatusOK && op.Status < http.StatusMultipleChoices:
			result.Created = append(result.Created, records[i])
		case op.Status == http.StatusConflict:
			result.Duplicates++
		default:
			failed++
			reason := ""
			if op.Error != nil {
				reason = op.Error.Type + ": " + op.Error.Reason
			}
			s.log.Warn("Failed to index record",
				logger.Source(records[i].SourceID),
				logger.String("id", op.ID),
				logger.Int("status", op.Status),
				logger.String("reason", reason),
			)
		}
	}

	s.log.Debug("Bulk indexed records",
		logger.String("index", s.index),
		logger.Int("created", len(result.Created)),
		logger.Int("duplicates", result.Duplicates),
		logger.Int("failed", failed),
	)

	if failed > 0 {
		return result, fmt.Errorf("%w: %d of %d", ErrBulkItems, failed, len(records))
	}
	return result, nil
}
