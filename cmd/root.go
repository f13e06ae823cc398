package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cube2222/udtf/config"
	"github.com/cube2222/udtf/logs"
)

var configPath string
var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "udtf",
	Short: "Run compiled table functions over columnar tables.",
	Long: `udtf runs compiled table functions over the tables listed in its configuration file,
on the CPU or on the accelerator.`,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logs.EnableStderr()
		}
	},
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func readConfig() (*config.Config, error) {
	if configPath == "" {
		cfg, err := config.Read()
		if err != nil {
			return nil, fmt.Errorf("couldn't read config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't read config: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file, ~/.udtf/config.yml by default.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print logs to stderr.")
}
