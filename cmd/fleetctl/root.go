package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fleetops/fleet-admin-client/internal/config"
	"github.com/fleetops/fleet-admin-client/pkg/logging"
)

var (
	cfgFile  string
	logLevel string
	pretty   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "fleetctl",
	Short:        "Fleet admin API client and reporting tool",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Account credentials commonly live in a .env file next to the
		// working directory; absence is fine.
		_ = godotenv.Load()

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}

		logging.Setup(logging.Config{
			Level:  logging.LogLevel(level),
			Pretty: pretty || cfg.Logging.Format == "console",
			Output: os.Stderr,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fleetctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable console log output")
}
