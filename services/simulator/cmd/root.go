package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Winner-yo/mqtt-dashboard/services/api/logging"
	"github.com/Winner-yo/mqtt-dashboard/services/simulator/internal/config"
)

var (
	logLevel string
	cfg      config.Config
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Publish synthetic sensor readings for the MQTT dashboard",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		return logging.Init(level)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error), overrides LOG_LEVEL")
}
