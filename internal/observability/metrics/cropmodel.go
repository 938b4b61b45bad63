// Package metrics provides custom Prometheus metrics for the CropInsight
// inference pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// CropModelMetrics contains all Prometheus metrics related to the two-stage
// inference pipeline.
type CropModelMetrics struct {
	RecommendationCounter *prometheus.CounterVec

	// Performance metrics
	PredictionDuration *prometheus.HistogramVec

	// Operation counters
	PredictionTotal  *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	ModelLoadTotal   *prometheus.CounterVec

	// Current state gauges
	StageAvailableGauge *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewCropModelMetrics creates a new instance of CropModelMetrics and
// registers it with the provided Prometheus registry.
func NewCropModelMetrics(registry *prometheus.Registry) (*CropModelMetrics, error) {
	m := &CropModelMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize crop model metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register crop model metrics: %w", err)
	}
	return m, nil
}

func (m *CropModelMetrics) initMetrics() error {
	m.RecommendationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropinsight_recommendations_total",
			Help: "Total number of crop recommendations partitioned by crop name.",
		},
		[]string{"crop"},
	)

	m.PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cropinsight_prediction_duration_seconds",
			Help:    "Time taken to perform one stage of inference",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		},
		[]string{"stage"},
	)

	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropinsight_predictions_total",
			Help: "Total number of prediction requests",
		},
		[]string{"stage", "status"},
	)

	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropinsight_prediction_errors_total",
			Help: "Total number of prediction errors",
		},
		[]string{"stage", "error_type"},
	)

	m.ModelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropinsight_model_load_total",
			Help: "Total number of model artifact load attempts",
		},
		[]string{"stage", "status"},
	)

	m.StageAvailableGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cropinsight_stage_available",
			Help: "Whether an inference stage is currently available (1) or not (0)",
		},
		[]string{"stage"},
	)

	return nil
}

// RecordPrediction records the outcome of one inference stage. Safe to call
// on a nil receiver so metrics stay optional in library use.
func (m *CropModelMetrics) RecordPrediction(stage string, durationSeconds float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PredictionTotal.WithLabelValues(stage, "error").Inc()
		m.PredictionErrors.WithLabelValues(stage, categorizeError(err)).Inc()
	} else {
		m.PredictionTotal.WithLabelValues(stage, "success").Inc()
		m.PredictionDuration.WithLabelValues(stage).Observe(durationSeconds)
	}
}

// IncrementRecommendation increments the per-crop recommendation counter.
func (m *CropModelMetrics) IncrementRecommendation(crop string) {
	if m == nil {
		return
	}
	m.RecommendationCounter.WithLabelValues(crop).Inc()
}

// RecordModelLoad records a model artifact load attempt and flips the
// stage availability gauge accordingly.
func (m *CropModelMetrics) RecordModelLoad(stage string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ModelLoadTotal.WithLabelValues(stage, "error").Inc()
		m.StageAvailableGauge.WithLabelValues(stage).Set(0)
	} else {
		m.ModelLoadTotal.WithLabelValues(stage, "success").Inc()
		m.StageAvailableGauge.WithLabelValues(stage).Set(1)
	}
}

// categorizeError maps an error onto a bounded label value.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.IsModelUnavailable(err):
		return "model_unavailable"
	case errors.IsUnsupportedCrop(err):
		return "unsupported_crop"
	case errors.IsPredictionFailure(err):
		return "prediction_failure"
	default:
		return "unknown"
	}
}

// Describe implements the prometheus.Collector interface.
func (m *CropModelMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RecommendationCounter.Describe(ch)
	m.PredictionDuration.Describe(ch)
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.ModelLoadTotal.Describe(ch)
	m.StageAvailableGauge.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *CropModelMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RecommendationCounter.Collect(ch)
	m.PredictionDuration.Collect(ch)
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.ModelLoadTotal.Collect(ch)
	m.StageAvailableGauge.Collect(ch)
}
