package harvest

import (
	"time"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

// SourceReport summarizes one source within a run.
type SourceReport struct {
	SourceID         string          `json:"source_id"`
	Records          int             `json:"records"`
	Created          int             `json:"created"`
	Duplicates       int             `json:"duplicates"`
	ConsecutiveEmpty int             `json:"consecutive_empty"`
	Duration         time.Duration   `json:"duration_ns"`
	Error            string          `json:"error,omitempty"`
	Items            []domain.Record `json:"items,omitempty"`
}

// Report summarizes a harvest run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceReport `json:"sources"`
}

// TotalRecords sums the records harvested across sources.
func (r Report) TotalRecords() int {
	n := 0
	for i := range r.Sources {
		n += r.Sources[i].Records
	}
	return n
}

// TotalCreated sums the newly stored records across sources.
func (r Report) TotalCreated() int {
	n := 0
	for i := range r.Sources {
		n += r.Sources[i].Created
	}
	return n
}
