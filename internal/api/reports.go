package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultReportLimit = 50
	maxReportLimit     = 500
)

// ListReports returns the most recent stored reports, newest first.
// Answers 503 when persistence is disabled.
func (c *Controller) ListReports(ctx echo.Context) error {
	if c.DS == nil {
		return ctx.JSON(http.StatusServiceUnavailable, errorResponse{Error: "report storage is disabled"})
	}

	limit := defaultReportLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = min(parsed, maxReportLimit)
	}

	recs, err := c.DS.Latest(limit)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, recs)
}

// GetReport returns one stored report by id.
func (c *Controller) GetReport(ctx echo.Context) error {
	if c.DS == nil {
		return ctx.JSON(http.StatusServiceUnavailable, errorResponse{Error: "report storage is disabled"})
	}

	rec, err := c.DS.Get(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, rec)
}
