package cmd

import (
	"os"

	"github.com/assetnote/serverbench/internal/bench"
	"github.com/assetnote/serverbench/pkg/context"
	"github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/assetnote/serverbench/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchPort     = bench.DefaultPort
	benchRequests = bench.DefaultRequests
	benchAll      = false
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run STRATEGY [--port 8080] [--requests 50]",
	Short: "start a server, load test it and print the results",
	Long: `this starts the named server strategy, sends it the requested number of
concurrent requests, stops it and prints the aggregated results.
With --all every strategy is benchmarked one after the other on the same port
so the results can be compared side by side.

usage:
serverbench run Single-Threaded
serverbench run Thread-Pool --port 8081 --requests 1000 --workers 50
serverbench run --all --requests 1000 -o json
`,
	Args: func(cmd *cobra.Command, args []string) error {
		if benchAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("loadtest.workers", cmd.Flags().Lookup("workers"))
		viper.BindPFlag("loadtest.timeout", cmd.Flags().Lookup("timeout"))
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
		defer context.RunShutdownHooks()

		names := args
		if benchAll {
			names = reg.ListServers()
		}

		results, err := bench.Run(context.Context(), reg, names,
			bench.Port(benchPort),
			bench.Requests(benchRequests),
			bench.ShowProgress(!viper.GetBool("quiet")),
		)
		if len(results) > 0 {
			if rerr := bench.Render(os.Stdout, string(log.GetLogFormat()), results); rerr != nil {
				log.Error().Err(rerr).Msg("failed to print results")
			}
		}
		if err != nil {
			errors.PrintError(err, 0)
			context.RunShutdownHooks()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&benchPort, "port", "p", benchPort, "port the server is started on. 0 picks a free port")
	runCmd.Flags().IntVarP(&benchRequests, "requests", "n", benchRequests, "number of requests to send")
	runCmd.Flags().BoolVar(&benchAll, "all", benchAll, "benchmark every strategy in turn")

	runCmd.Flags().Int("workers", 0, "maximum number of requests in flight (default 10)")
	runCmd.Flags().Duration("timeout", 0, "time allowed for the whole load test (default 30s)")
	runCmd.Flags().Int("pool-size", 0, "number of workers handling connections for the Thread-Pool server")
}
