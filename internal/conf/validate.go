package conf

import (
	"fmt"
	"strconv"
)

// ValidateSettings rejects configurations the application cannot start
// with. Missing model artifacts are deliberately not validated here; the
// model layer reports per-stage availability at load time.
func ValidateSettings(settings *Settings) error {
	if settings.Reference.Baseline != "mean" && settings.Reference.Baseline != "mode" {
		return fmt.Errorf("reference.baseline must be \"mean\" or \"mode\", got %q", settings.Reference.Baseline)
	}

	if settings.WebServer.Enabled {
		port, err := strconv.Atoi(settings.WebServer.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("webserver.port must be a valid port number, got %q", settings.WebServer.Port)
		}
	}

	if settings.Datastore.Enabled && settings.Datastore.Path == "" {
		return fmt.Errorf("datastore.path must be set when the datastore is enabled")
	}

	if settings.Output.Enabled {
		switch settings.Output.Type {
		case "csv", "table":
		default:
			return fmt.Errorf("output.type must be \"csv\" or \"table\", got %q", settings.Output.Type)
		}
	}

	return nil
}
