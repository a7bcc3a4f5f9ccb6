// Package spider defines the contract shared by every legal-source adapter
// and the fail-soft machinery they run under.
package spider

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
)

// Spider harvests one legal source into canonical records.
type Spider interface {
	// ID is the registry key of the source.
	ID() string
	// Supports reports whether sourceID names this spider.
	Supports(sourceID string) bool
	// Frequency is the cadence the scheduler should run the spider at.
	Frequency() domain.Frequency
	// Crawl fetches and normalizes records. It never returns an error and
	// never panics: failures are logged and yield an empty slice.
	Crawl(ctx context.Context, opts Options) []domain.Record
}

// ConfigResolver resolves per-source settings. An empty string means unset.
type ConfigResolver interface {
	BaseURL(sourceID string) string
}

// Deps are the ports injected into every spider.
type Deps struct {
	Fetcher fetch.Fetcher
	Config  ConfigResolver
	Logger  logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// WithDefaults fills unset optional ports.
func (d Deps) WithDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Config == nil {
		d.Config = StaticConfig(nil)
	}
	return d
}

// StaticConfig is a ConfigResolver backed by a map of base URLs.
type StaticConfig map[string]string

// BaseURL implements ConfigResolver.
func (c StaticConfig) BaseURL(sourceID string) string {
	return c[sourceID]
}

// Options narrows a crawl. Zero values select adapter defaults.
type Options struct {
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Window is the resolved form of Options.
type Window struct {
	From       time.Time
	To         time.Time
	MaxResults int
}

// Resolve applies the frequency lookback and the adapter's default cap.
func (o Options) Resolve(freq domain.Frequency, defaultMax int, now time.Time) Window {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	w := Window{
		From:       today.AddDate(0, 0, -freq.LookbackDays()),
		To:         today,
		MaxResults: defaultMax,
	}

	if t, ok := dates.Parse(o.DateFrom); ok {
		w.From = t
	}
	if t, ok := dates.Parse(o.DateTo); ok {
		w.To = t
	}
	if o.MaxResults > 0 {
		w.MaxResults = o.MaxResults
	}

	return w
}

// BaseURL returns the configured base URL for id or fallback.
func BaseURL(cfg ConfigResolver, id, fallback string) string {
	if cfg != nil {
		if u := cfg.BaseURL(id); u != "" {
			return u
		}
	}
	return fallback
}
