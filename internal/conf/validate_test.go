package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "CropInsight"},
		Model: ModelSettings{
			ClassifierPath: "models/classifier.json",
			LabelPath:      "models/labels.json",
			RegressorPath:  "models/regressor.json",
		},
		Reference: ReferenceSettings{Baseline: "mean"},
		WebServer: WebServerSettings{Host: "0.0.0.0", Port: "8080"},
		Datastore: DatastoreSettings{Path: "cropinsight.db"},
		Output:    OutputSettings{Type: "table"},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			name:    "bad baseline",
			mutate:  func(s *Settings) { s.Reference.Baseline = "median" },
			wantMsg: "reference.baseline",
		},
		{
			name: "bad port",
			mutate: func(s *Settings) {
				s.WebServer.Enabled = true
				s.WebServer.Port = "eighty"
			},
			wantMsg: "webserver.port",
		},
		{
			name: "port out of range",
			mutate: func(s *Settings) {
				s.WebServer.Enabled = true
				s.WebServer.Port = "70000"
			},
			wantMsg: "webserver.port",
		},
		{
			name: "datastore without path",
			mutate: func(s *Settings) {
				s.Datastore.Enabled = true
				s.Datastore.Path = ""
			},
			wantMsg: "datastore.path",
		},
		{
			name: "bad output type",
			mutate: func(s *Settings) {
				s.Output.Enabled = true
				s.Output.Type = "xml"
			},
			wantMsg: "output.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDisabledSectionsAreNotValidated(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.WebServer.Enabled = false
	s.WebServer.Port = "not-a-port"
	s.Output.Enabled = false
	s.Output.Type = "xml"

	assert.NoError(t, ValidateSettings(s))
}

func TestEmbeddedDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := getDefaultConfig()
	for _, want := range []string{"model:", "classifierpath:", "reference:", "webserver:", "datastore:"} {
		assert.Contains(t, cfg, want)
	}
}
