package cmd

import (
	"github.com/assetnote/serverbench/internal/api"
	"github.com/assetnote/serverbench/pkg/context"
	"github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/assetnote/serverbench/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [--addr :9090]",
	Short: "serve the management api for starting, stopping and load testing servers",
	Long: `this starts the management api. Servers are started on demand through the api
and every running server is stopped when serverbench is interrupted.

usage:
serverbench serve
serverbench serve --addr 127.0.0.1:9090
curl -X POST 'localhost:9090/api/servers/Thread-Pool/start?port=8081'
curl -X POST localhost:9090/api/servers/Thread-Pool/test -d '{"port":8081,"numberOfRequests":500}'
`,
	Args: cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		// bound here rather than in init as run shares some of the keys
		viper.BindPFlag("api.addr", cmd.Flags().Lookup("addr"))
		viper.BindPFlag("api.allowed_origin", cmd.Flags().Lookup("allowed-origin"))
		viper.BindPFlag("server.pool_size", cmd.Flags().Lookup("pool-size"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		c := loadConfig()

		reg, err := registry.NewDefault(c.Server, c.LoadTest)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create servers")
		}
		context.OnShutdown(func() {
			if err := reg.Close(); err != nil {
				errors.PrintError(err, 0)
			}
		})

		log.Info().
			Strs("servers", reg.ListServers()).
			Int("pool_size", c.Server.PoolSize).
			Int("workers", c.LoadTest.Workers).
			Msg("serving management api")

		if err := api.ListenAndServe(context.Context(), reg, c.API); err != nil {
			context.RunShutdownHooks()
			log.Fatal().Err(err).Msg("failed to serve management api")
		}
		context.RunShutdownHooks()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address the management api listens on (default :9090)")
	serveCmd.Flags().String("allowed-origin", "", "origin allowed to call the api from a browser (default http://localhost:4200)")
	serveCmd.Flags().Int("pool-size", 0, "number of workers handling connections for the Thread-Pool server")
}
