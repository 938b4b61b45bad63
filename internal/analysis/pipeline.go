// Package analysis orchestrates the end-to-end advisory pipeline: input
// validation, crop recommendation, yield regression, derived indices and
// reference matching, assembled into a single report.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
	"github.com/cropinsight/cropinsight-go/internal/datastore"
	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/logging"
	"github.com/cropinsight/cropinsight-go/internal/observability"
	"github.com/cropinsight/cropinsight-go/internal/observability/metrics"
	"github.com/cropinsight/cropinsight-go/internal/report"
)

// Request is one farm submission. Yield is nil when only a crop
// recommendation is wanted.
type Request struct {
	Observation agronomy.FarmObservation `json:"observation"`
	Yield       *YieldRequest            `json:"yield,omitempty"`
}

// YieldRequest asks for a Stage-2 yield estimate. An empty Crop defers to
// the Stage-1 recommendation.
type YieldRequest struct {
	Crop   string               `json:"crop,omitempty"`
	Inputs agronomy.YieldInputs `json:"inputs"`
}

// Pipeline wires the model, reference baselines and optional persistence
// into one request-scoped flow. Safe for concurrent use; all fields are
// read-only after construction.
type Pipeline struct {
	model        *cropmodel.CropModel
	refs         *agronomy.ReferenceSet
	store        datastore.Interface
	metrics      *observability.Metrics
	baselineKind agronomy.BaselineKind
	log          *slog.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithReferenceSet attaches per-crop baselines for match scoring.
func WithReferenceSet(refs *agronomy.ReferenceSet) Option {
	return func(p *Pipeline) { p.refs = refs }
}

// WithDatastore enables report persistence.
func WithDatastore(store datastore.Interface) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithMetrics attaches the metrics collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithBaselineKind selects the reference statistic used for match scoring.
func WithBaselineKind(kind agronomy.BaselineKind) Option {
	return func(p *Pipeline) { p.baselineKind = kind }
}

// New creates a pipeline around a loaded model.
func New(model *cropmodel.CropModel, opts ...Option) *Pipeline {
	p := &Pipeline{
		model:        model,
		baselineKind: agronomy.BaselineMean,
		log:          logging.ForService("analysis"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one submission. Stage failures degrade the report rather
// than failing the request; only invalid input (NaN or infinite values) or
// context cancellation return an error.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*report.Report, error) {
	warnings, err := agronomy.Validate(&req.Observation)
	if err != nil {
		return nil, err
	}
	if req.Yield != nil {
		warnings = append(warnings, agronomy.ValidateYieldInputs(&req.Yield.Inputs)...)
	}

	r := report.New(&req.Observation, warnings)

	p.runRecommendation(r, &req.Observation)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Yield != nil {
		p.runYield(r, &req.Observation, req.Yield)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	p.persist(r)

	return r, nil
}

// runRecommendation performs Stage 1 and, when a baseline exists for the
// recommended crop, the reference match.
func (p *Pipeline) runRecommendation(r *report.Report, obs *agronomy.FarmObservation) {
	start := time.Now()
	pred, err := p.model.Predict(obs)
	p.cropModelMetrics().RecordPrediction("classifier", time.Since(start).Seconds(), err)
	if err != nil {
		r.CropError = err.Error()
		p.log.Warn("crop recommendation unavailable",
			"report_id", r.ID,
			"error", err)
		return
	}

	r.Crop = pred
	p.cropModelMetrics().IncrementRecommendation(pred.Crop)
	p.log.Debug("crop recommended",
		"report_id", r.ID,
		"crop", pred.Crop,
		"score", pred.Score)

	if baseline, ok := p.refs.Values(pred.Crop, p.baselineKind); ok {
		match := agronomy.ComputeMatchReport(obs, pred.Crop, baseline)
		r.Match = &match
	}
}

// runYield performs Stage 2 for the requested or recommended crop.
func (p *Pipeline) runYield(r *report.Report, obs *agronomy.FarmObservation, req *YieldRequest) {
	crop := req.Crop
	if crop == "" && r.Crop != nil {
		crop = r.Crop.Crop
	}
	if crop == "" {
		r.YieldError = "no crop available for yield estimation"
		return
	}

	start := time.Now()
	pred, err := p.model.PredictYield(obs, crop, &req.Inputs)
	p.cropModelMetrics().RecordPrediction("regressor", time.Since(start).Seconds(), err)
	if err != nil {
		r.YieldError = err.Error()
		switch {
		case errors.IsUnsupportedCrop(err):
			p.log.Debug("yield estimation skipped",
				"report_id", r.ID,
				"crop", crop)
		default:
			p.log.Warn("yield estimation unavailable",
				"report_id", r.ID,
				"crop", crop,
				"error", err)
		}
		return
	}

	r.Yield = pred
	p.log.Debug("yield estimated",
		"report_id", r.ID,
		"crop", pred.Crop,
		"tons_per_hectare", pred.TonsPerHectare)
}

// persist saves the flattened report. Storage failures are logged, never
// surfaced to the caller.
func (p *Pipeline) persist(r *report.Report) {
	if p.store == nil {
		return
	}
	rec := r.ToRecord()
	if err := p.store.Save(&rec); err != nil {
		p.log.Error("failed to persist report",
			"report_id", r.ID,
			"error", err)
	}
}

// cropModelMetrics returns the stage recorder, nil when metrics are off.
// The recorder's methods are nil-safe.
func (p *Pipeline) cropModelMetrics() *metrics.CropModelMetrics {
	if p.metrics == nil {
		return nil
	}
	return p.metrics.CropModel
}
