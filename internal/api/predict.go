package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/analysis"
)

// Predict runs the full advisory pipeline for one observation. The
// response is the assembled report; stage failures appear as error strings
// inside it rather than failing the request.
func (c *Controller) Predict(ctx echo.Context) error {
	var req analysis.Request
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	r, err := c.Pipeline.Run(ctx.Request().Context(), &req)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, r)
}

// yieldRequest is the payload for a standalone yield estimate.
type yieldRequest struct {
	Observation agronomy.FarmObservation `json:"observation"`
	Crop        string                   `json:"crop"`
	Inputs      agronomy.YieldInputs     `json:"inputs"`
}

// PredictYield runs Stage 2 only, for a caller-specified crop.
func (c *Controller) PredictYield(ctx echo.Context) error {
	var req yieldRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Crop == "" {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "crop is required"})
	}

	pred, err := c.Model.PredictYield(&req.Observation, req.Crop, &req.Inputs)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, pred)
}

// healthResponse reports service and per-stage availability.
type healthResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Recommendation bool    `json:"recommendation_available"`
	YieldEstimate  bool    `json:"yield_estimate_available"`
}

// HealthCheck reports liveness plus which inference stages are loaded. The
// service is healthy as long as it can answer; degraded stages show up as
// false flags.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	resp := healthResponse{
		Status:         "ok",
		UptimeSeconds:  time.Since(c.startTime).Seconds(),
		Recommendation: c.Model.Stage1Available(),
		YieldEstimate:  c.Model.Stage2Available(),
	}
	return ctx.JSON(http.StatusOK, resp)
}
