// schema.go canonical feature schema and the mapping to artifact columns
package cropmodel

import (
	"fmt"
	"strings"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// Canonical column names for the combined Stage-2 feature row. Serialized
// regressors were trained against several inconsistent naming conventions
// ("ph" vs "Soil_pH", "N" vs "Nitrogen"); this package fixes one canonical
// schema and adapts to whatever the artifact declares at the model
// boundary.
const (
	ColNitrogen       = "N"
	ColPhosphorus     = "P"
	ColPotassium      = "K"
	ColTemperature    = "temperature"
	ColHumidity       = "humidity"
	ColPH             = "ph"
	ColRainfall       = "rainfall"
	ColCrop           = "crop"
	ColSoilMoisture   = "soil_moisture"
	ColSunlightHours  = "sunlight_hours"
	ColFertilizerUsed = "fertilizer_used"
	ColPesticideUsed  = "pesticide_used"
	ColSoilType       = "soil_type"
	ColIrrigationType = "irrigation_type"
)

// columnAliases maps each canonical column to the artifact spellings seen
// across trained regressors. Alias matching is case-insensitive.
var columnAliases = map[string][]string{
	ColNitrogen:       {"n", "nitrogen"},
	ColPhosphorus:     {"p", "phosphorus"},
	ColPotassium:      {"k", "potassium"},
	ColTemperature:    {"temperature", "temp"},
	ColHumidity:       {"humidity"},
	ColPH:             {"ph", "soil_ph"},
	ColRainfall:       {"rainfall"},
	ColCrop:           {"crop", "crop_type", "label"},
	ColSoilMoisture:   {"soil_moisture", "moisture"},
	ColSunlightHours:  {"sunlight_hours", "sunlight"},
	ColFertilizerUsed: {"fertilizer_used", "fertilizer"},
	ColPesticideUsed:  {"pesticide_used", "pesticide"},
	ColSoilType:       {"soil_type"},
	ColIrrigationType: {"irrigation_type", "irrigation"},
}

// categoricalColumns are the canonical columns encoded through the
// artifact's category tables.
var categoricalColumns = map[string]bool{
	ColCrop:           true,
	ColSoilType:       true,
	ColIrrigationType: true,
}

// canonicalColumn resolves an artifact feature name to its canonical
// column, or "" when the name matches no known alias.
func canonicalColumn(artifactName string) string {
	name := strings.ToLower(strings.TrimSpace(artifactName))
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if alias == name {
				return canonical
			}
		}
	}
	return ""
}

// RegressorSchema is the validated mapping between the canonical feature
// row and one artifact's declared columns. Built once at load time so that
// per-request row assembly is a straight index walk.
type RegressorSchema struct {
	// canonical[i] is the canonical column feeding artifact feature i.
	canonical []string
	// categories[i] is the artifact's ordinal category table for feature i,
	// nil for numeric features.
	categories [][]string
}

// NewRegressorSchema validates that every column the artifact declares maps
// onto the canonical schema and that each categorical column carries a
// category table.
func NewRegressorSchema(model *GBTRegressor) (*RegressorSchema, error) {
	schema := &RegressorSchema{
		canonical:  make([]string, len(model.FeatureNames)),
		categories: make([][]string, len(model.FeatureNames)),
	}

	seen := make(map[string]bool, len(model.FeatureNames))
	for i, artifactName := range model.FeatureNames {
		canonical := canonicalColumn(artifactName)
		if canonical == "" {
			return nil, errors.New(fmt.Errorf("regressor declares column %q which maps to no canonical feature", artifactName)).
				Component("cropmodel").
				Category(errors.CategorySchema).
				Context("column", artifactName).
				Build()
		}
		if seen[canonical] {
			return nil, errors.New(fmt.Errorf("regressor declares duplicate column for %q", canonical)).
				Component("cropmodel").
				Category(errors.CategorySchema).
				Context("column", artifactName).
				Build()
		}
		seen[canonical] = true
		schema.canonical[i] = canonical

		if categoricalColumns[canonical] {
			table, ok := lookupCategoryTable(model.Categories, artifactName, canonical)
			if !ok {
				return nil, errors.New(fmt.Errorf("regressor column %q has no category table", artifactName)).
					Component("cropmodel").
					Category(errors.CategorySchema).
					Context("column", artifactName).
					Build()
			}
			schema.categories[i] = table
		}
	}

	return schema, nil
}

// lookupCategoryTable finds the artifact's category list for a column,
// accepting either the artifact spelling or the canonical name as key.
func lookupCategoryTable(tables map[string][]string, artifactName, canonical string) ([]string, bool) {
	if table, ok := tables[artifactName]; ok {
		return table, true
	}
	for key, table := range tables {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == strings.ToLower(artifactName) || canonicalColumn(key) == canonical {
			return table, true
		}
	}
	return nil, false
}

// BuildRow assembles the regressor feature row for one submission,
// encoding categoricals through the artifact's ordinal tables. An input
// value absent from a category table is a recoverable prediction failure
// naming the offending column and value.
func (s *RegressorSchema) BuildRow(obs *agronomy.FarmObservation, crop string, in *agronomy.YieldInputs) ([]float64, error) {
	numeric := map[string]float64{
		ColNitrogen:       obs.Nitrogen,
		ColPhosphorus:     obs.Phosphorus,
		ColPotassium:      obs.Potassium,
		ColTemperature:    obs.Temperature,
		ColHumidity:       obs.Humidity,
		ColPH:             obs.PH,
		ColRainfall:       obs.Rainfall,
		ColSoilMoisture:   in.SoilMoisture,
		ColSunlightHours:  in.SunlightHours,
		ColFertilizerUsed: in.FertilizerUsed,
		ColPesticideUsed:  in.PesticideUsed,
	}
	categorical := map[string]string{
		ColCrop:           crop,
		ColSoilType:       string(in.SoilType),
		ColIrrigationType: string(in.IrrigationType),
	}

	row := make([]float64, len(s.canonical))
	for i, canonical := range s.canonical {
		if table := s.categories[i]; table != nil {
			code, err := encodeCategory(canonical, categorical[canonical], table)
			if err != nil {
				return nil, err
			}
			row[i] = code
			continue
		}
		row[i] = numeric[canonical]
	}

	return row, nil
}

// encodeCategory resolves a categorical value to its ordinal code in the
// artifact's table, case-insensitively.
func encodeCategory(column, value string, table []string) (float64, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for code, entry := range table {
		if strings.ToLower(strings.TrimSpace(entry)) == needle {
			return float64(code), nil
		}
	}
	return 0, errors.New(fmt.Errorf("value %q for column %q was not seen during training", value, column)).
		Component("cropmodel").
		Category(errors.CategoryPrediction).
		Context("column", column).
		Context("value", value).
		Build()
}
