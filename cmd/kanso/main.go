package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/config"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "kanso",
	Short:         "Kanso - goals, tasks and the activity heatmap behind them",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (default: ./config/kanso.yaml or ./kanso.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = Version
}

// loadConfig reads the configuration and installs the logger it asks for.
func loadConfig() (*config.Loader, *config.Config, error) {
	loader, err := config.NewLoader(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loader.Config()
	if err != nil {
		return nil, nil, err
	}
	config.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	return loader, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
