package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/config"
	coremon "github.com/kilianp07/tripscore/core/monitoring"
	"github.com/kilianp07/tripscore/infra/monitoring"
)

var (
	cfgPath string
	envPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "tripscore",
	Short:             "Trip rating and driver-day simulation",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { coremon.Flush(2 * time.Second) },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file loaded before the configuration")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads the environment file and the configuration and installs the
// error monitor. A missing .env is not an error.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	path := cfgPath
	if !cmd.Flags().Changed("config") && !fileExists(path) {
		path = ""
	}
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(c.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	cfg = c
	return nil
}
