package spider

import (
	"strings"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

// Collector accumulates valid records up to a cap. Records missing
// external_ref or title are dropped silently.
type Collector struct {
	max     int
	records []domain.Record
}

// NewCollector returns a Collector capped at max; max <= 0 means unbounded.
func NewCollector(max int) *Collector {
	return &Collector{max: max, records: []domain.Record{}}
}

// Add appends r if it is valid and the cap is not reached. It reports
// whether the record was kept.
func (c *Collector) Add(r domain.Record) bool {
	if c.Full() {
		return false
	}

	r.ExternalRef = strings.TrimSpace(r.ExternalRef)
	r.Title = strings.TrimSpace(r.Title)
	if !r.Valid() {
		return false
	}

	r.FullText = ""
	c.records = append(c.records, r)

	return true
}

// Full reports whether the cap has been reached.
func (c *Collector) Full() bool {
	return c.max > 0 && len(c.records) >= c.max
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Records returns the collected records.
func (c *Collector) Records() []domain.Record {
	return c.records
}
