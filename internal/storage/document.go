package storage

import (
	"time"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

const (
	defaultStatusLegal = "vigente"
	defaultLanguage    = "es"

	ScopeEU       = "eu"
	ScopeNational = "national"
)

// euSources are the source ids whose records belong to the EU corpus.
var euSources = map[string]bool{
	"tjue":   true,
	"eurlex": true,
	"tedh":   true,
	"edpb":   true,
}

// Document is the indexed form of a record.
type Document struct {
	domain.Record
	Scope       string    `json:"scope"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// NewDocument fills storage-side defaults on a copy of r.
func NewDocument(r domain.Record, now time.Time) Document {
	if r.StatusLegal == "" {
		r.StatusLegal = defaultStatusLegal
	}
	if r.LanguageOriginal == "" {
		r.LanguageOriginal = defaultLanguage
	}

	return Document{Record: r, Scope: ScopeOf(r.SourceID), HarvestedAt: now.UTC()}
}

// ScopeOf reports whether sourceID feeds the EU or the national corpus.
func ScopeOf(sourceID string) string {
	if euSources[sourceID] {
		return ScopeEU
	}
	return ScopeNational
}
