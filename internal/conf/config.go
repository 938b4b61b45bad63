// Package conf loads and validates the application configuration from
// config files, environment variables and defaults.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// ModelSettings locates the serialized inference artifacts. Either stage
// may be left unconfigured; the application degrades instead of failing.
type ModelSettings struct {
	ClassifierPath string `yaml:"classifierpath"` // crop recommendation forest
	LabelPath      string `yaml:"labelpath"`      // class index to crop name mapping
	RegressorPath  string `yaml:"regressorpath"`  // yield regressor, optional
}

// ReferenceSettings locates the historical observations used for match
// scoring.
type ReferenceSettings struct {
	Path     string `yaml:"path"`     // reference CSV, optional
	Baseline string `yaml:"baseline"` // "mean" or "mode"
}

// WebServerSettings holds the HTTP API configuration.
type WebServerSettings struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	AuthToken string `yaml:"authtoken"` // bearer token, empty disables auth
	Debug     bool   `yaml:"debug"`
}

// DatastoreSettings controls optional report persistence.
type DatastoreSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite database file
}

// OutputSettings controls CLI export of generated reports.
type OutputSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // "csv" or "table"
}

// LogSettings holds file logging configuration.
type LogSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MainSettings contains the application-wide knobs.
type MainSettings struct {
	Name string      `yaml:"name"`
	Log  LogSettings `yaml:"log"`
}

// Settings is the root configuration structure.
type Settings struct {
	Debug bool `yaml:"debug"`

	Main      MainSettings      `yaml:"main"`
	Model     ModelSettings     `yaml:"model"`
	Reference ReferenceSettings `yaml:"reference"`
	WebServer WebServerSettings `yaml:"webserver"`
	Datastore DatastoreSettings `yaml:"datastore"`
	Output    OutputSettings    `yaml:"output"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with defaults and reads the configuration
// file, creating one from the embedded template when none exists.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("cropinsight")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded template to the primary config
// path and loads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig returns the embedded config template.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetDefaultConfigPaths returns the OS-specific config search paths.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "cropinsight"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "cropinsight"),
			"/etc/cropinsight",
		}
	}

	return configPaths, nil
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting wraps GetSettings, loading configuration on first use.
func Setting() *Settings {
	if GetSettings() == nil {
		if _, err := Load(); err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}
	}
	return GetSettings()
}
