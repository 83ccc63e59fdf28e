/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/config"
	"github.com/ssargent/ecudatalog/pkg/di"
)

// Global flags
var (
	configPath string
	logLevel   string
	dataDir    string
	format     string
)

var container *di.Container

// SetContainer injects the dependency container. Commands build one from the
// configuration when none was injected.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecudl",
	Short: "ecudl - ECU datalog toolkit",
	Long: `ecudl reads, converts and archives FlashPro and KPro engine datalogs.

FlashPro logs can be stored plain (FPDL) or inside the compressed OPDL
container. KPro logs are always plain and may carry comments.

Examples:
  ecudl info drive.fpdl
  ecudl frames drive.kal --from 100 --limit 20 -o json
  ecudl compress drive.fpdl drive.opdl
  ecudl ingest *.fpdl && ecudl list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil || cmd.Name() == "init" {
			return nil
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := di.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		container = c
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "archive data directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "table", "output format (table or json)")
}

// loadConfig reads the config file when it exists and applies flag
// overrides. A missing file at the default location is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if explicit || config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}
