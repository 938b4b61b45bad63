// Package cropmodel wraps the pre-trained crop classifier and yield
// regressor artifacts behind the two-stage inference API.
package cropmodel

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/logging"
)

// Config contains the artifact locations for model initialization.
type Config struct {
	// ClassifierPath is the path to the crop classifier artifact.
	ClassifierPath string

	// LabelPath is the path to the label encoder artifact.
	LabelPath string

	// RegressorPath is the path to the yield regressor artifact.
	// Optional: an empty path leaves Stage 2 unavailable.
	RegressorPath string

	// Debug enables debug logging
	Debug bool
}

// CropModel owns the loaded artifacts for both inference stages. Artifacts
// are loaded once, held read-only for the process lifetime, and shared
// across concurrent requests without locking; tree evaluation does not
// mutate model state.
//
// A load failure disables the affected stage only: Stage 1 requires the
// classifier and label encoder, Stage 2 the regressor. Predict calls
// against an unavailable stage return a model-unavailable error rather
// than panicking, so the caller can degrade the feature instead of the
// process.
type CropModel struct {
	classifier *ForestClassifier
	encoder    *LabelEncoder
	regressor  *GBTRegressor
	schema     *RegressorSchema

	stage1Err error
	stage2Err error

	config Config
	logger *slog.Logger
}

// New loads the artifacts named by config. It never fails outright: per
// spec, missing or corrupt artifacts degrade the corresponding stage and
// the returned model reports availability through Stage1Available and
// Stage2Available.
func New(config *Config) (*CropModel, error) {
	if config == nil {
		return nil, errors.New(errors.NewStd("config cannot be nil")).
			Component("cropmodel").
			Category(errors.CategoryValidation).
			Build()
	}

	cm := &CropModel{
		config: *config,
		logger: logging.ForService("cropmodel"),
	}
	if cm.logger == nil {
		cm.logger = slog.Default()
	}

	cm.loadStage1()
	cm.loadStage2()

	return cm, nil
}

// loadStage1 loads the classifier and label encoder, recording any failure
// as the stage's unavailability cause.
func (cm *CropModel) loadStage1() {
	start := time.Now()

	classifier, err := LoadForestClassifier(cm.config.ClassifierPath)
	if err != nil {
		cm.stage1Err = err
		cm.logger.Warn("crop classifier unavailable",
			"path", cm.config.ClassifierPath,
			"error", err)
		return
	}

	encoder, err := LoadLabelEncoder(cm.config.LabelPath)
	if err != nil {
		cm.stage1Err = err
		cm.logger.Warn("label encoder unavailable",
			"path", cm.config.LabelPath,
			"error", err)
		return
	}

	if classifier.NumClass != len(encoder.Classes) {
		cm.stage1Err = errors.New(fmt.Errorf("classifier predicts %d classes but label encoder holds %d", classifier.NumClass, len(encoder.Classes))).
			Component("cropmodel").
			Category(errors.CategoryModelInit).
			Context("classifier_classes", classifier.NumClass).
			Context("encoder_classes", len(encoder.Classes)).
			Build()
		cm.logger.Warn("classifier and label encoder disagree on class count", "error", cm.stage1Err)
		return
	}

	cm.classifier = classifier
	cm.encoder = encoder
	cm.logger.Info("crop classifier initialized",
		"trees", len(classifier.Trees),
		"classes", classifier.NumClass,
		"load_time_ms", time.Since(start).Milliseconds())
}

// loadStage2 loads the regressor and validates its schema mapping.
func (cm *CropModel) loadStage2() {
	if cm.config.RegressorPath == "" {
		cm.stage2Err = errors.New(errors.NewStd("no yield regressor configured")).
			Component("cropmodel").
			Category(errors.CategoryModelLoad).
			Build()
		return
	}

	start := time.Now()

	regressor, err := LoadGBTRegressor(cm.config.RegressorPath)
	if err != nil {
		cm.stage2Err = err
		cm.logger.Warn("yield regressor unavailable",
			"path", cm.config.RegressorPath,
			"error", err)
		return
	}

	schema, err := NewRegressorSchema(regressor)
	if err != nil {
		cm.stage2Err = err
		cm.logger.Warn("yield regressor schema mapping failed",
			"path", cm.config.RegressorPath,
			"error", err)
		return
	}

	cm.regressor = regressor
	cm.schema = schema
	cm.logger.Info("yield regressor initialized",
		"trees", len(regressor.Trees),
		"features", len(regressor.FeatureNames),
		"load_time_ms", time.Since(start).Milliseconds())
}

// Stage1Available reports whether crop classification can run.
func (cm *CropModel) Stage1Available() bool {
	return cm.classifier != nil && cm.encoder != nil
}

// Stage2Available reports whether yield regression can run.
func (cm *CropModel) Stage2Available() bool {
	return cm.regressor != nil && cm.schema != nil
}

// Stage1Error returns the cause of Stage-1 unavailability, nil when the
// stage is healthy.
func (cm *CropModel) Stage1Error() error {
	if cm.Stage1Available() {
		return nil
	}
	return cm.stage1Err
}

// Stage2Error returns the cause of Stage-2 unavailability, nil when the
// stage is healthy.
func (cm *CropModel) Stage2Error() error {
	if cm.Stage2Available() {
		return nil
	}
	return cm.stage2Err
}

// Labels returns the crop vocabulary of the loaded encoder.
func (cm *CropModel) Labels() []string {
	if cm.encoder == nil {
		return nil
	}
	labels := make([]string, len(cm.encoder.Classes))
	copy(labels, cm.encoder.Classes)
	return labels
}
