/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/di"
	"github.com/ssargent/pxdb/pkg/logging"
)

var (
	container *di.Container
	cfg       *config.Config
	logger    *logrus.Logger
)

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pxdb",
	Short: "pxdb - Paradox table reader",
	Long: `pxdb reads Paradox .DB tables without the Borland Database Engine.

It prints a table's header and schema, dumps its records, exports them to
CSV, SQLite or a Pebble key-value store, and serves them over a read-only
HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// setup loads the configuration and builds the logger for a command
func setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	loaded, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if level != "" {
		loaded.Logging.Level = level
	}

	l, err := logging.New(loaded.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	if container == nil {
		container = di.NewContainer()
	}
	return nil
}

// loadConfig reads the file at path. Without an explicit path the default
// location is tried and a missing file means defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = config.GetDefaultConfigPath()
	}

	if !config.ConfigExists(path) {
		if explicit {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ~/.config/pxdb/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}
