/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/config"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file with a generated API key.

Examples:
  ecudl init
  ecudl init --config ./ecudl.yaml --data-dir ./archive
  ecudl init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}

		cfg, err := initConfig(path, dataDir, initForce)
		if err != nil {
			return err
		}

		cmd.Printf("Configuration written to %s\n", path)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  ecudl serve --config %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

// initConfig bootstraps the config file at path unless one exists and force
// is unset.
func initConfig(path, dataDir string, force bool) (*config.Config, error) {
	if config.ConfigExists(path) && !force {
		return nil, fmt.Errorf("config file %s already exists, use --force to overwrite", path)
	}
	return config.BootstrapConfig(path, dataDir)
}
