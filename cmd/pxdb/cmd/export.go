/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/export"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a table to CSV, SQLite or Pebble",
	Long: `Export the records of a Paradox table.

Formats:
  csv     header row of field names, then one row per record
  sqlite  a table named after the Paradox table, replaced if it exists
  pebble  one JSON object per record under <table>/<index>

The output defaults to the table path with the format as extension.

Examples:
  pxdb export CUSTOMER.DB
  pxdb export CUSTOMER.DB --format sqlite --out customers.sqlite
  pxdb export CUSTOMER.DB --format pebble --skip-errors`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")
		skipErrors, _ := cmd.Flags().GetBool("skip-errors")

		if out == "" {
			out = export.DefaultOutput(args[0], format)
		}

		return runExport(commandContext(cmd), cmd.OutOrStdout(), args[0], exportRequest{
			Format:     format,
			Out:        out,
			Limit:      limit,
			SkipErrors: skipErrors,
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", export.FormatCSV, "Output format: csv, sqlite or pebble")
	exportCmd.Flags().StringP("out", "o", "", "Output path (default <table>.<format>)")
	exportCmd.Flags().IntP("limit", "n", 0, "Export at most this many records (0 exports all)")
	exportCmd.Flags().Bool("skip-errors", false, "Skip records that cannot be read instead of aborting")
}

type exportRequest struct {
	Format     string
	Out        string
	Limit      int
	SkipErrors bool
}

func runExport(ctx context.Context, w io.Writer, path string, req exportRequest) error {
	t, err := openTable(path)
	if err != nil {
		return err
	}
	defer t.Close()

	sink, err := container.GetSinkFactory().CreateSink(req.Format, req.Out, tableName(t.Document, path), export.NewRenderer(cfg.Export))
	if err != nil {
		return err
	}

	opts := export.Options{
		Logger: logger.WithFields(logrus.Fields{"table": path, "format": req.Format}),
		Limit:  req.Limit,
	}
	if req.SkipErrors {
		opts.OnError = func(i int, err error) error {
			logger.WithField("record", i).WithError(err).Warn("skipping record")
			return nil
		}
	}

	stats, err := export.Run(ctx, t.Document, sink, opts)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	fmt.Fprintf(w, "Exported %d records to %s", stats.Written, req.Out)
	if stats.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", stats.Skipped)
	}
	fmt.Fprintln(w)
	return nil
}
