/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/log"
)

var (
	servePort int
	serveBind string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the datalog REST API server over the archive.

The API key, bind address and port come from the config file. Flags
override the address.

Examples:
  ecudl serve
  ecudl serve --port 9400 --bind 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind = serveBind
		}

		archive, err := container.OpenArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		if cfg.Security.APIKey == "" {
			container.Logger().Warn("no API key configured, the API is unauthenticated")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := container.NewServer(archive)
		container.Logger().Info("serving datalog archive",
			log.String("data_dir", cfg.DataDir),
			log.String("addr", server.Addr()))
		return server.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 9300, "Port to listen on")
	serveCmd.Flags().StringVar(&serveBind, "bind", "127.0.0.1", "Address to bind server to")
}
