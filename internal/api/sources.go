package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

// SourceView is the API representation of a source.
type SourceView struct {
	ID        string              `json:"id"`
	Frequency domain.Frequency    `json:"frequency"`
	Enabled   bool                `json:"enabled"`
	State     *domain.SourceState `json:"state,omitempty"`
}

// SourceHandler serves the /sources endpoints.
type SourceHandler struct {
	sources harvest.Sources
	h       Harvester
	log     logger.Logger
}

// NewSourceHandler creates a SourceHandler.
func NewSourceHandler(sources harvest.Sources, h Harvester, log logger.Logger) *SourceHandler {
	return &SourceHandler{sources: sources, h: h, log: log}
}

// List returns every registered source with its state.
func (s *SourceHandler) List(c *gin.Context) {
	views, err := s.views(c)
	if err != nil {
		s.log.Error("Failed to load source states", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source states"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": views, "count": len(views)})
}

// Get returns a single source.
func (s *SourceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.sources.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}

	views, err := s.views(c)
	if err != nil {
		s.log.Error("Failed to load source states", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source states"})
		return
	}

	for _, v := range views {
		if v.ID == id {
			c.JSON(http.StatusOK, v)
			return
		}
	}
}

// Harvest runs one source synchronously. The optional JSON body narrows the
// crawl; items are included when include_items=true.
func (s *SourceHandler) Harvest(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.sources.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}

	var opts spider.Options
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if msg := validateOptions(opts); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	report := s.h.Run(c.Request.Context(), []string{id}, opts)
	if c.Query("include_items") != "true" {
		for i := range report.Sources {
			report.Sources[i].Items = nil
		}
	}

	c.JSON(http.StatusOK, report)
}

func (s *SourceHandler) views(c *gin.Context) ([]SourceView, error) {
	states, err := s.h.States(c.Request.Context())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.SourceState, len(states))
	for _, st := range states {
		byID[st.SourceID] = st
	}

	enabled := make(map[string]bool)
	for _, id := range s.h.Enabled() {
		enabled[id] = true
	}

	all := s.sources.All()
	views := make([]SourceView, 0, len(all))
	for _, sp := range all {
		views = append(views, SourceView{
			ID:        sp.ID(),
			Frequency: sp.Frequency(),
			Enabled:   enabled[sp.ID()],
			State:     byID[sp.ID()],
		})
	}
	return views, nil
}

func validateOptions(o spider.Options) string {
	if o.DateFrom != "" {
		if _, ok := dates.Parse(o.DateFrom); !ok {
			return "invalid date_from"
		}
	}
	if o.DateTo != "" {
		if _, ok := dates.Parse(o.DateTo); !ok {
			return "invalid date_to"
		}
	}
	if o.MaxResults < 0 {
		return "max_results must not be negative"
	}
	return ""
}
