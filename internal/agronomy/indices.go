package agronomy

// Derived diagnostic indices. Pure functions of the observation, used only
// for explanatory display alongside the model outputs.

// THI band thresholds (°C equivalent).
const (
	THIOptimalMin = 15.0
	THIWarmMin    = 22.0
	THIHeatMin    = 28.0
)

// SFI band thresholds.
const (
	SFIModerateMin  = 30.0
	SFIGoodMin      = 60.0
	SFIExcellentMin = 90.0
)

// THI computes the temperature-humidity index, a livestock-derived heat
// stress diagnostic. Can be negative for cold, dry conditions.
func THI(temperature, humidity float64) float64 {
	return temperature - (0.55-0.0055*humidity)*(temperature-14.4)
}

// THIBand classifies a THI value into its stress band.
func THIBand(thi float64) string {
	switch {
	case thi < THIOptimalMin:
		return "cold stress"
	case thi < THIWarmMin:
		return "optimal"
	case thi < THIHeatMin:
		return "warm/monitor"
	default:
		return "heat stress"
	}
}

// SFI computes the soil fertility index, the mean of the three macronutrient
// levels.
func SFI(n, p, k float64) float64 {
	return (n + p + k) / 3
}

// SFIBand classifies an SFI value into its fertility band.
func SFIBand(sfi float64) string {
	switch {
	case sfi < SFIModerateMin:
		return "low"
	case sfi < SFIGoodMin:
		return "moderate"
	case sfi < SFIExcellentMin:
		return "good"
	default:
		return "excellent"
	}
}

// Indices bundles the derived scalars computed for one observation.
type Indices struct {
	THI     float64 `json:"thi"`
	THIBand string  `json:"thi_band"`
	SFI     float64 `json:"sfi"`
	SFIBand string  `json:"sfi_band"`
}

// ComputeIndices evaluates both indices for an observation.
func ComputeIndices(obs *FarmObservation) Indices {
	thi := THI(obs.Temperature, obs.Humidity)
	sfi := SFI(obs.Nitrogen, obs.Phosphorus, obs.Potassium)
	return Indices{
		THI:     thi,
		THIBand: THIBand(thi),
		SFI:     sfi,
		SFIBand: SFIBand(sfi),
	}
}

// MatchScore scores how closely a user value tracks a reference value as a
// percentage in [0, 100]. A zero reference short-circuits to a full match
// rather than dividing by zero.
func MatchScore(user, reference float64) float64 {
	if reference == 0 {
		return 100
	}
	diff := user - reference
	if diff < 0 {
		diff = -diff
	}
	pct := 100 - diff/reference*100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ParameterMatch is the per-parameter comparison against a crop's reference
// baseline.
type ParameterMatch struct {
	Parameter string  `json:"parameter"`
	UserValue float64 `json:"user_value"`
	Reference float64 `json:"reference"`
	MatchPct  float64 `json:"match_pct"`
}

// MatchReport compares an observation against a reference baseline for one
// crop. Overall is the unweighted mean of the seven per-parameter scores.
type MatchReport struct {
	Crop       string           `json:"crop"`
	Parameters []ParameterMatch `json:"parameters"`
	Overall    float64          `json:"overall"`
}

// ComputeMatchReport scores the observation against a baseline vector in
// canonical feature order.
func ComputeMatchReport(obs *FarmObservation, crop string, baseline []float64) MatchReport {
	names := FeatureNames()
	values := obs.FeatureVector()

	report := MatchReport{
		Crop:       crop,
		Parameters: make([]ParameterMatch, 0, len(names)),
	}

	var total float64
	for i, name := range names {
		score := MatchScore(values[i], baseline[i])
		report.Parameters = append(report.Parameters, ParameterMatch{
			Parameter: name,
			UserValue: values[i],
			Reference: baseline[i],
			MatchPct:  score,
		})
		total += score
	}
	report.Overall = total / float64(len(names))

	return report
}
