/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file for pxdb.

The file holds the export formats, decode options, server settings and
logging level. It is written to --config or ~/.config/pxdb/config.yaml.

Examples:
  pxdb init
  pxdb init --config ./pxdb.yaml --with-api-key`,
	// init must work even when the existing file is invalid
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		withAPIKey, _ := cmd.Flags().GetBool("with-api-key")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		return initConfig(cmd.OutOrStdout(), configPath, force, withAPIKey)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("with-api-key", false, "Generate an API key for the server")
}

func initConfig(w io.Writer, configPath string, force, withAPIKey bool) error {
	if config.ConfigExists(configPath) && !force {
		fmt.Fprintf(w, "Configuration already exists at %s. Use --force to overwrite.\n", configPath)
		return nil
	}

	written, err := config.BootstrapConfig(configPath, withAPIKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✅ Configuration written to %s\n", configPath)
	if written.Server.APIKey != "" {
		fmt.Fprintf(w, "\n🔑 Server API key: %s\n", written.Server.APIKey)
		fmt.Fprintf(w, "⚠️  Store this key securely! It is also saved in %s\n", configPath)
	}
	return nil
}
