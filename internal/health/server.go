// Package health serves the keep-alive endpoint some hosting platforms probe.
// It is stateless and never touches session or activation state.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smsrent/internal/logger"
)

// Router builds the health endpoints.
func Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	running := func(c *gin.Context) {
		c.String(http.StatusOK, "running")
	}
	r.GET("/", running)
	r.GET("/healthz", running)
	return r
}

// Run serves the keep-alive listener until ctx is done.
func Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.L.Info("health listener started",
		slog.String("component", "health"),
		slog.String("event", "listen"),
		slog.String("addr", listen),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
