package agronomy

import (
	"fmt"
	"math"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// Domain ranges for the base agronomic inputs. Values outside these ranges
// are flagged, not rejected; the classifier is still invoked on implausible
// inputs.
const (
	NutrientMin = 0.0
	NutrientMax = 200.0

	TemperatureMin = 0.0
	TemperatureMax = 50.0

	HumidityMin = 0.0
	HumidityMax = 100.0

	PHMin = 0.0
	PHMax = 14.0

	// Typical agronomic pH band; values outside it are advisory warnings.
	PHTypicalMin = 3.5
	PHTypicalMax = 10.0

	RainfallMin = 0.0
	RainfallMax = 1000.0
)

// Validate checks a FarmObservation against the known domain ranges and
// returns advisory warnings for out-of-range values. The observation is
// never modified and no value ever blocks downstream inference; NaN and Inf
// are the only hard errors since the classifier cannot consume them.
func Validate(obs *FarmObservation) ([]string, error) {
	for i, v := range obs.FeatureVector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Newf("field %s is not a finite number", FeatureNames()[i]).
				Component("agronomy").
				Category(errors.CategoryValidation).
				Context("field", FeatureNames()[i]).
				Build()
		}
	}

	var warnings []string

	checkRange := func(name string, value, min, max float64, unit string) {
		if value < min || value > max {
			warnings = append(warnings,
				fmt.Sprintf("%s value %.2f%s is outside the expected range [%.1f, %.1f]", name, value, unit, min, max))
		}
	}

	checkRange("nitrogen", obs.Nitrogen, NutrientMin, NutrientMax, "")
	checkRange("phosphorus", obs.Phosphorus, NutrientMin, NutrientMax, "")
	checkRange("potassium", obs.Potassium, NutrientMin, NutrientMax, "")
	checkRange("temperature", obs.Temperature, TemperatureMin, TemperatureMax, "°C")
	checkRange("humidity", obs.Humidity, HumidityMin, HumidityMax, "%")
	checkRange("rainfall", obs.Rainfall, RainfallMin, RainfallMax, "mm")

	switch {
	case obs.PH < PHMin || obs.PH > PHMax:
		warnings = append(warnings,
			fmt.Sprintf("pH value %.2f is outside the physical range [%.1f, %.1f]", obs.PH, PHMin, PHMax))
	case obs.PH < PHTypicalMin || obs.PH > PHTypicalMax:
		warnings = append(warnings,
			fmt.Sprintf("pH value %.2f is outside the typical agronomic range [%.1f, %.1f]", obs.PH, PHTypicalMin, PHTypicalMax))
	}

	return warnings, nil
}

// ValidateYieldInputs flags negative management inputs. Like Validate, the
// result is advisory only.
func ValidateYieldInputs(in *YieldInputs) []string {
	var warnings []string

	checkNonNegative := func(name string, value float64) {
		if value < 0 {
			warnings = append(warnings, fmt.Sprintf("%s value %.2f is negative", name, value))
		}
	}

	checkNonNegative("soil moisture", in.SoilMoisture)
	checkNonNegative("sunlight hours", in.SunlightHours)
	checkNonNegative("fertilizer used", in.FertilizerUsed)
	checkNonNegative("pesticide used", in.PesticideUsed)

	if in.SoilMoisture > 100 {
		warnings = append(warnings, fmt.Sprintf("soil moisture value %.2f%% exceeds 100%%", in.SoilMoisture))
	}
	if in.SunlightHours > 24 {
		warnings = append(warnings, fmt.Sprintf("sunlight hours value %.2f exceeds 24 hours/day", in.SunlightHours))
	}

	return warnings
}
