// Package api exposes the advisory pipeline over HTTP.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/analysis"
	"github.com/cropinsight/cropinsight-go/internal/conf"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
	"github.com/cropinsight/cropinsight-go/internal/datastore"
	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/logging"
	"github.com/cropinsight/cropinsight-go/internal/observability"
)

const baselineCacheTTL = 15 * time.Minute

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Pipeline *analysis.Pipeline
	Model    *cropmodel.CropModel
	Refs     *agronomy.ReferenceSet
	DS       datastore.Interface

	baselineCache *cache.Cache
	metrics       *observability.Metrics
	apiLogger     *slog.Logger
	startTime     time.Time
}

// New creates the controller and registers all routes. refs and ds may be
// nil; the corresponding endpoints answer with empty or unavailable
// results.
func New(settings *conf.Settings, pipeline *analysis.Pipeline, model *cropmodel.CropModel, refs *agronomy.ReferenceSet, ds datastore.Interface, m *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	c := &Controller{
		Echo:          e,
		Settings:      settings,
		Pipeline:      pipeline,
		Model:         model,
		Refs:          refs,
		DS:            ds,
		// No janitor goroutine; expiry is checked on read and the
		// entry count is bounded by the crop vocabulary.
		baselineCache: cache.New(baselineCacheTTL, 0),
		metrics:       m,
		apiLogger:     logging.ForService("api"),
		startTime:     time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(c.requestMetrics)

	c.initRoutes()
	return c
}

// initRoutes wires up the endpoint handlers. Health and metrics stay open;
// everything under /api/v1 goes through the auth middleware.
func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.HealthCheck)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	c.Group = c.Echo.Group("/api/v1", c.authMiddleware)
	c.Group.POST("/predict", c.Predict)
	c.Group.POST("/yield", c.PredictYield)
	c.Group.GET("/crops", c.ListCrops)
	c.Group.GET("/crops/:crop/baseline", c.CropBaseline)
	c.Group.GET("/reports", c.ListReports)
	c.Group.GET("/reports/:id", c.GetReport)
}

// requestMetrics records per-request counters and latencies.
func (c *Controller) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if c.metrics != nil {
			c.metrics.HTTP.RecordRequest(
				ctx.Request().Method,
				ctx.Path(),
				ctx.Response().Status,
				time.Since(start).Seconds(),
			)
		}
		return err
	}
}

// Start runs the HTTP server until the context is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	addr := net.JoinHostPort(c.Settings.WebServer.Host, c.Settings.WebServer.Port)

	errCh := make(chan error, 1)
	go func() {
		c.apiLogger.Info("starting HTTP server", "address", addr)
		if err := c.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return c.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.apiLogger.Info("shutting down HTTP server")
	return c.Echo.Shutdown(ctx)
}

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// HandleError maps pipeline and storage errors onto HTTP status codes.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		status = http.StatusBadRequest
	case errors.IsUnsupportedCrop(err):
		status = http.StatusUnprocessableEntity
	case errors.IsModelUnavailable(err):
		status = http.StatusServiceUnavailable
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		c.apiLogger.Error("request failed",
			"path", ctx.Path(),
			"error", err)
	}

	return ctx.JSON(status, errorResponse{Error: err.Error()})
}
