// Package serve implements the HTTP API server command.
package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cropinsight/cropinsight-go/internal/analysis"
	"github.com/cropinsight/cropinsight-go/internal/api"
	"github.com/cropinsight/cropinsight-go/internal/conf"
	"github.com/cropinsight/cropinsight-go/internal/logging"
	"github.com/cropinsight/cropinsight-go/internal/observability"
)

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the advisory HTTP API",
		Long:  "Start the HTTP server exposing prediction, yield and report endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.WebServer.Enabled = true
			return run(settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Address to listen on")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.WebServer.AuthToken, "auth-token", viper.GetString("webserver.authtoken"), "Bearer token for API access, empty disables auth")
	cmd.Flags().BoolVar(&settings.Datastore.Enabled, "store", viper.GetBool("datastore.enabled"), "Persist generated reports")

	return cmd
}

func run(settings *conf.Settings) error {
	log := logging.ForService("serve")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	components, err := analysis.Setup(settings, metrics)
	if err != nil {
		return err
	}
	defer components.Close()

	controller := api.New(settings, components.Pipeline, components.Model, components.Refs, components.Store, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("server starting",
		"host", settings.WebServer.Host,
		"port", settings.WebServer.Port,
		"auth", settings.WebServer.AuthToken != "",
		"datastore", settings.Datastore.Enabled)

	return controller.Start(ctx)
}
