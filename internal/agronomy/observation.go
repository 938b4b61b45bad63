// Package agronomy defines the farm observation domain model and the pure
// agronomic calculations performed over it.
package agronomy

import "strings"

// FarmObservation is the base agronomic record collected for one submission.
// All values are kept exactly as supplied; out-of-range values produce
// advisory warnings, never silent clamping.
type FarmObservation struct {
	Nitrogen    float64 `json:"nitrogen" yaml:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus" yaml:"phosphorus"`
	Potassium   float64 `json:"potassium" yaml:"potassium"`
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Humidity    float64 `json:"humidity" yaml:"humidity"`       // relative %
	PH          float64 `json:"ph" yaml:"ph"`
	Rainfall    float64 `json:"rainfall" yaml:"rainfall"` // mm
}

// FeatureVector returns the observation as the fixed-order numeric vector
// the classifier was trained on: [N, P, K, temperature, humidity, ph,
// rainfall]. The order is load-bearing; reordering silently produces wrong
// predictions with no error signal.
func (o *FarmObservation) FeatureVector() []float64 {
	return []float64{
		o.Nitrogen,
		o.Phosphorus,
		o.Potassium,
		o.Temperature,
		o.Humidity,
		o.PH,
		o.Rainfall,
	}
}

// FeatureNames lists the canonical base feature names in vector order.
func FeatureNames() []string {
	return []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}
}

// SoilType is the categorical soil texture classification.
type SoilType string

const (
	SoilSandy SoilType = "Sandy"
	SoilLoamy SoilType = "Loamy"
	SoilClay  SoilType = "Clay"
	SoilSilty SoilType = "Silty"
)

// IrrigationType is the categorical irrigation method.
type IrrigationType string

const (
	IrrigationDrip      IrrigationType = "Drip"
	IrrigationSprinkler IrrigationType = "Sprinkler"
	IrrigationFlood     IrrigationType = "Flood"
	IrrigationRainfed   IrrigationType = "Rainfed"
)

// ParseSoilType normalizes a user-supplied soil type string. "Silt" is an
// accepted alias for "Silty" since input sources disagree on the name.
func ParseSoilType(s string) (SoilType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandy":
		return SoilSandy, true
	case "loamy", "loam":
		return SoilLoamy, true
	case "clay":
		return SoilClay, true
	case "silty", "silt":
		return SoilSilty, true
	default:
		return "", false
	}
}

// ParseIrrigationType normalizes a user-supplied irrigation type string.
// "Canal" is an accepted alias for "Flood".
func ParseIrrigationType(s string) (IrrigationType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drip":
		return IrrigationDrip, true
	case "sprinkler":
		return IrrigationSprinkler, true
	case "flood", "canal", "flood/canal":
		return IrrigationFlood, true
	case "rainfed", "rain-fed":
		return IrrigationRainfed, true
	default:
		return "", false
	}
}

// YieldInputs extends a FarmObservation with farm-management fields for the
// yield regressor. Only meaningful when the Stage-1 crop is in the
// supported allow-list.
type YieldInputs struct {
	SoilMoisture   float64        `json:"soil_moisture" yaml:"soil_moisture"`     // %
	SunlightHours  float64        `json:"sunlight_hours" yaml:"sunlight_hours"`   // hours/day
	FertilizerUsed float64        `json:"fertilizer_used" yaml:"fertilizer_used"` // kg/ha
	PesticideUsed  float64        `json:"pesticide_used" yaml:"pesticide_used"`   // kg/ha
	SoilType       SoilType       `json:"soil_type" yaml:"soil_type"`
	IrrigationType IrrigationType `json:"irrigation_type" yaml:"irrigation_type"`
}
