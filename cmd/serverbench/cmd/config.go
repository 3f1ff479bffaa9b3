package cmd

import (
	"os"

	"github.com/assetnote/serverbench/pkg/log"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "print the effective configuration",
	Long: `this prints the configuration after the config file and environment
variables have been applied, in the format accepted by --config.

usage:
serverbench config > ~/.serverbench.yaml
SERVERBENCH_SERVER_POOL_SIZE=50 serverbench config
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := loadConfig()
		if err := c.WriteYAML(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("failed to print config")
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
