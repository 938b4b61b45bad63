// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "CropInsight")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "cropinsight.log")

	viper.SetDefault("model.classifierpath", "models/classifier.json")
	viper.SetDefault("model.labelpath", "models/labels.json")
	viper.SetDefault("model.regressorpath", "models/regressor.json")

	viper.SetDefault("reference.path", "")
	viper.SetDefault("reference.baseline", "mean")

	viper.SetDefault("webserver.enabled", false)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.authtoken", "")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("datastore.enabled", false)
	viper.SetDefault("datastore.path", "cropinsight.db")

	viper.SetDefault("output.enabled", false)
	viper.SetDefault("output.path", "")
	viper.SetDefault("output.type", "table")
}
