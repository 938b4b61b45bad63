// labels.go label encoder artifact handling
package cropmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// KnownCrops is the closed 22-label vocabulary of the soil dataset the
// classifier is trained on. The encoder rejects anything outside it.
var KnownCrops = []string{
	"rice", "maize", "chickpea", "kidneybeans", "pigeonpeas",
	"mothbeans", "mungbean", "blackgram", "lentil", "pomegranate",
	"banana", "mango", "grapes", "watermelon", "muskmelon",
	"apple", "orange", "papaya", "coconut", "jute",
	"coffee", "cotton",
}

// ExpectedLabelCount is the size of the closed crop vocabulary.
const ExpectedLabelCount = 22

// LabelEncoder maps classifier class indices back to crop names, inverting
// the label encoding the classifier was trained with.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Decode returns the crop name for a class index.
func (le *LabelEncoder) Decode(classIndex int) (string, error) {
	if classIndex < 0 || classIndex >= len(le.Classes) {
		return "", fmt.Errorf("class index %d out of range for %d labels", classIndex, len(le.Classes))
	}
	return le.Classes[classIndex], nil
}

// IsKnownCrop reports whether a label belongs to the closed vocabulary.
// Comparison is case-insensitive.
func IsKnownCrop(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, crop := range KnownCrops {
		if crop == label {
			return true
		}
	}
	return false
}

// LoadLabelEncoder reads the encoder artifact and validates it against the
// closed vocabulary.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading label encoder: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryLabelLoad).
			FileContext(path, 0).
			Build()
	}

	var encoder LabelEncoder
	if err := json.Unmarshal(data, &encoder); err != nil {
		return nil, errors.New(fmt.Errorf("decoding label encoder: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryLabelLoad).
			FileContext(path, int64(len(data))).
			Build()
	}

	if len(encoder.Classes) != ExpectedLabelCount {
		return nil, errors.New(fmt.Errorf("label encoder holds %d classes, expected %d", len(encoder.Classes), ExpectedLabelCount)).
			Component("cropmodel").
			Category(errors.CategoryLabelLoad).
			Context("class_count", len(encoder.Classes)).
			Build()
	}

	for i, class := range encoder.Classes {
		if !IsKnownCrop(class) {
			return nil, errors.New(fmt.Errorf("label encoder class %d is %q, not in the known crop vocabulary", i, class)).
				Component("cropmodel").
				Category(errors.CategoryLabelLoad).
				Context("label", class).
				Build()
		}
	}

	return &encoder, nil
}
