package cropmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// YieldCrops is the fixed allow-list of crops with a trained yield
// regressor. The gate compares case-insensitively; variant inputs arrive
// capitalized.
var YieldCrops = []string{"rice", "maize", "cotton"}

// YieldSupported reports whether Stage-2 regression is defined for a crop.
func YieldSupported(crop string) bool {
	needle := strings.ToLower(strings.TrimSpace(crop))
	for _, c := range YieldCrops {
		if c == needle {
			return true
		}
	}
	return false
}

// YieldPrediction is the Stage-2 output in tons per hectare.
type YieldPrediction struct {
	Crop           string        `json:"crop"`
	TonsPerHectare float64       `json:"tons_per_hectare"`
	InferredIn     time.Duration `json:"-"`
}

// PredictYield performs Stage-2 inference over the combined observation,
// crop label and management inputs. Crops outside the allow-list are
// rejected up front with an unsupported-crop error before the regressor is
// ever consulted; callers distinguish that defined negative path from real
// failures via errors.IsUnsupportedCrop.
func (cm *CropModel) PredictYield(obs *agronomy.FarmObservation, crop string, in *agronomy.YieldInputs) (*YieldPrediction, error) {
	if !YieldSupported(crop) {
		return nil, errors.New(fmt.Errorf("yield prediction is not available for %q, only for %s", crop, strings.Join(YieldCrops, ", "))).
			Component("cropmodel").
			Category(errors.CategoryUnsupportedCrop).
			Context("crop", crop).
			Build()
	}

	if !cm.Stage2Available() {
		return nil, cm.stage2Err
	}

	start := time.Now()

	row, err := cm.schema.BuildRow(obs, strings.ToLower(strings.TrimSpace(crop)), in)
	if err != nil {
		return nil, err
	}

	tons, err := cm.regressor.Predict(row)
	if err != nil {
		return nil, errors.New(fmt.Errorf("yield regression failed: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryPrediction).
			Context("stage", "regressor").
			Context("crop", crop).
			Build()
	}

	// Boosted sums can dip below zero on sparse corners of the feature
	// space; yield is reported as a non-negative quantity.
	if tons < 0 {
		tons = 0
	}

	return &YieldPrediction{
		Crop:           strings.ToLower(strings.TrimSpace(crop)),
		TonsPerHectare: tons,
		InferredIn:     time.Since(start),
	}, nil
}
