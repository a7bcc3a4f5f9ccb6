// Package api exposes source status and on-demand harvests over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Harvester is the part of harvest.Harvester the API drives.
type Harvester interface {
	Run(ctx context.Context, ids []string, opts spider.Options) harvest.Report
	States(ctx context.Context) ([]*domain.SourceState, error)
	Enabled() []string
}

// NewRouter builds the gin engine. metrics may be nil.
func NewRouter(sources harvest.Sources, h Harvester, metrics http.Handler, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	handler := NewSourceHandler(sources, h, log)

	v1 := router.Group("/api/v1")
	src := v1.Group("/sources")
	src.GET("", handler.List)
	src.GET("/:id", handler.Get)
	src.POST("/:id/harvest", handler.Harvest)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
