package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
)

// cropsResponse lists the recommendation vocabulary and what each crop
// supports.
type cropsResponse struct {
	Crops []cropInfo `json:"crops"`
}

type cropInfo struct {
	Name           string `json:"name"`
	YieldSupported bool   `json:"yield_supported"`
	HasBaseline    bool   `json:"has_baseline"`
}

// ListCrops returns the closed recommendation vocabulary.
func (c *Controller) ListCrops(ctx echo.Context) error {
	resp := cropsResponse{Crops: make([]cropInfo, 0, len(cropmodel.KnownCrops))}
	for _, crop := range cropmodel.KnownCrops {
		_, hasBaseline := c.Refs.Values(crop, agronomy.BaselineMean)
		resp.Crops = append(resp.Crops, cropInfo{
			Name:           crop,
			YieldSupported: cropmodel.YieldSupported(crop),
			HasBaseline:    hasBaseline,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// baselineResponse is the per-crop reference baseline in canonical feature
// order.
type baselineResponse struct {
	Crop     string             `json:"crop"`
	Baseline map[string]float64 `json:"baseline"`
	Kind     string             `json:"kind"`
	Samples  int                `json:"samples"`
}

// CropBaseline returns the reference baseline for one crop. Results are
// cached; the underlying reference set is immutable after load.
func (c *Controller) CropBaseline(ctx echo.Context) error {
	crop := strings.ToLower(ctx.Param("crop"))

	kind := agronomy.BaselineKind(ctx.QueryParam("kind"))
	if kind != agronomy.BaselineMode {
		kind = agronomy.BaselineMean
	}

	cacheKey := crop + ":" + string(kind)
	if cached, found := c.baselineCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	values, ok := c.Refs.Values(crop, kind)
	if !ok {
		return ctx.JSON(http.StatusNotFound, errorResponse{Error: "no baseline for crop " + crop})
	}

	baseline := make(map[string]float64, len(values))
	for i, name := range agronomy.FeatureNames() {
		baseline[name] = values[i]
	}
	resp := baselineResponse{
		Crop:     crop,
		Baseline: baseline,
		Kind:     string(kind),
		Samples:  c.Refs.SampleCount(crop),
	}

	c.baselineCache.SetDefault(cacheKey, resp)
	return ctx.JSON(http.StatusOK, resp)
}
