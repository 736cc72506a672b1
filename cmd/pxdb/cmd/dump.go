/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/export"
	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the records of a table",
	Long: `Print the records of a Paradox table, one field per line.

Memo fields are read from the table's .MB file when it sits next to the
.DB file.

Examples:
  pxdb dump CUSTOMER.DB
  pxdb dump CUSTOMER.DB --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		defer t.Close()

		return dumpRecords(commandContext(cmd), cmd.OutOrStdout(), t, export.NewRenderer(cfg.Export), limit)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().IntP("limit", "n", 0, "Print at most this many records (0 prints all)")
}

var errDumpLimit = errors.New("dump limit reached")

func dumpRecords(ctx context.Context, w io.Writer, t *openedTable, r *export.Renderer, limit int) error {
	fields := t.Fields()

	err := t.Scan(ctx, func(i int, rec []value.Value) error {
		if limit > 0 && i >= limit {
			return errDumpLimit
		}
		return writeRecord(w, t, r, i, fields, rec)
	})
	if errors.Is(err, errDumpLimit) {
		return nil
	}
	return err
}

func writeRecord(w io.Writer, t *openedTable, r *export.Renderer, i int, fields []table.FieldDescriptor, rec []value.Value) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "record %d\n", i)
	for j, v := range rec {
		text, err := displayText(t, r, v)
		if err != nil {
			return fmt.Errorf("record %d field %s: %w", i, fields[j].Name, err)
		}
		fmt.Fprintf(tw, "  %s:\t%s\n", fields[j].Name, text)
	}
	return tw.Flush()
}

// displayText renders v for a terminal; nulls show as <null>
func displayText(t *openedTable, r *export.Renderer, v value.Value) (string, error) {
	switch v.Kind {
	case value.KindNull:
		return "<null>", nil
	case value.KindBlobRef:
		return blobText(t.Document, v), nil
	case value.KindUnsupported:
		b, _ := v.Bytes()
		return fmt.Sprintf("<%s % x>", v.Type, b), nil
	}
	return r.Text(v)
}
