// Package server exposes the converter over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hurou927/text2sql/internal/converter"
)

// Holder publishes the current converter. Store swaps it atomically; requests
// already running keep the converter they loaded.
type Holder struct {
	p atomic.Pointer[converter.Converter]
}

// NewHolder creates a Holder serving c.
func NewHolder(c *converter.Converter) *Holder {
	h := &Holder{}
	h.p.Store(c)
	return h
}

// Load returns the current converter.
func (h *Holder) Load() *converter.Converter {
	return h.p.Load()
}

// Store replaces the current converter.
func (h *Holder) Store(c *converter.Converter) {
	h.p.Store(c)
}

// NewRouter registers all routes.
func NewRouter(src *Holder, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(requestID(), accessLog(log), gin.Recovery())

	h := &handler{src: src}
	router.GET("/", h.health)

	api := router.Group("/api/v1")
	api.GET("/schema", h.schema)
	api.GET("/stats", h.stats)
	api.POST("/convert", h.convert)
	api.POST("/convert/batch", h.batch)
	api.POST("/explain", h.explain)

	return router
}

// New creates the HTTP server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Minute,
	}
}

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
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

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
