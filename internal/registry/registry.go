// Package registry holds the closed set of legal-source spiders.
package registry

import (
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/boe"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/cendoj"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/curia"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/dgt"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/edpb"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/eurlex"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/hudoc"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/teac"
)

// Registry maps source ids to spiders.
type Registry struct {
	order   []string
	spiders map[string]spider.Spider
}

// New builds the registry of every supported source, national sources first.
func New(deps spider.Deps) *Registry {
	return FromSpiders(
		boe.New(deps),
		cendoj.New(deps),
		dgt.New(deps),
		teac.New(deps),
		eurlex.New(deps),
		curia.New(deps),
		hudoc.New(deps),
		edpb.New(deps),
	)
}

// SourceIDs returns the id of every supported source in registration order,
// for callers that need the ids before dependencies exist.
func SourceIDs() []string {
	return New(spider.Deps{}).IDs()
}

// FromSpiders builds a registry from an explicit list. Later spiders with a
// duplicate id are ignored.
func FromSpiders(spiders ...spider.Spider) *Registry {
	r := &Registry{spiders: make(map[string]spider.Spider, len(spiders))}
	for _, s := range spiders {
		if _, dup := r.spiders[s.ID()]; dup {
			continue
		}
		r.order = append(r.order, s.ID())
		r.spiders[s.ID()] = s
	}
	return r
}

// Get returns the spider registered under id.
func (r *Registry) Get(id string) (spider.Spider, bool) {
	s, ok := r.spiders[id]
	return s, ok
}

// All returns every spider in registration order.
func (r *Registry) All() []spider.Spider {
	out := make([]spider.Spider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.spiders[id])
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
