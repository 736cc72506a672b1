/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a table over a read-only REST API",
	Long: `Serve a Paradox table over a read-only REST API.

Routes live under /api/v1 (health, table, fields, records) and Prometheus
metrics under /metrics. When an API key is configured every /api/v1 request
must carry it in the X-API-Key header.

Examples:
  pxdb serve CUSTOMER.DB
  pxdb serve CUSTOMER.DB --port 9000 --api-key mysecretkey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server := cfg.Server
		if cmd.Flags().Changed("port") {
			server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			server.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		defer t.Close()

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, t.Document, api.ServerConfig{
			Bind:    server.Bind,
			Port:    server.Port,
			APIKey:  server.APIKey,
			Formats: cfg.Export,
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind")
	serveCmd.Flags().String("api-key", "", "API key required in X-API-Key (empty disables authentication)")
}
