package domain

import "time"

// SourceState is the per-source bookkeeping kept between harvest runs.
type SourceState struct {
	SourceID        string     `db:"source_id"         json:"source_id"`
	LastSyncAt      *time.Time `db:"last_sync_at"      json:"last_sync_at,omitempty"`
	LastRecordCount int        `db:"last_record_count" json:"last_record_count"`
	TotalDocuments  int64      `db:"total_documents"   json:"total_documents"`
	// ConsecutiveEmpty counts runs in a row that produced no records.
	ConsecutiveEmpty int       `db:"consecutive_empty" json:"consecutive_empty"`
	ErrorCount       int       `db:"error_count"       json:"error_count"`
	LastError        *string   `db:"last_error"        json:"last_error,omitempty"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}

// LastSync returns the last sync time, zero when the source never ran.
func (s *SourceState) LastSync() time.Time {
	if s == nil || s.LastSyncAt == nil {
		return time.Time{}
	}
	return *s.LastSyncAt
}

// RunResult is the outcome of one harvest of one source.
type RunResult struct {
	At      time.Time
	Records int
	// New is the number of records storage had not seen before.
	New int
	// Err is the sink failure of the run, nil on success.
	Err *string
}

// Apply folds r into s the same way the state repository does in SQL.
func (s *SourceState) Apply(r RunResult) {
	at := r.At
	s.LastSyncAt = &at
	s.LastRecordCount = r.Records
	s.TotalDocuments += int64(r.New)
	if r.Records == 0 {
		s.ConsecutiveEmpty++
	} else {
		s.ConsecutiveEmpty = 0
	}
	if r.Err != nil {
		s.ErrorCount++
	}
	s.LastError = r.Err
	s.UpdatedAt = at
}
