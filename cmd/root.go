package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cropinsight/cropinsight-go/cmd/predict"
	"github.com/cropinsight/cropinsight-go/cmd/serve"
	"github.com/cropinsight/cropinsight-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cropinsight",
		Short: "CropInsight CLI",
		Long:  "Crop recommendation and yield estimation from farm observations.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		predict.Command(settings),
		serve.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Model.ClassifierPath, "classifier", viper.GetString("model.classifierpath"), "Path to the crop classifier artifact")
	rootCmd.PersistentFlags().StringVar(&settings.Model.LabelPath, "labels", viper.GetString("model.labelpath"), "Path to the label encoder artifact")
	rootCmd.PersistentFlags().StringVar(&settings.Model.RegressorPath, "regressor", viper.GetString("model.regressorpath"), "Path to the yield regressor artifact")
	rootCmd.PersistentFlags().StringVar(&settings.Reference.Path, "reference", viper.GetString("reference.path"), "Path to the reference observations CSV")
	rootCmd.PersistentFlags().StringVar(&settings.Reference.Baseline, "baseline", viper.GetString("reference.baseline"), "Reference statistic for match scoring: mean or mode")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
