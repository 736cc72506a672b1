/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/value"
)

// fieldsCmd represents the fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields <file>",
	Short: "List the fields of a table",
	Long: `List the fields of a Paradox table with their type and size.

Examples:
  pxdb fields CUSTOMER.DB`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		defer t.Close()

		return writeFields(cmd.OutOrStdout(), t, output)
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

type fieldInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int    `json:"size"`
	Scale  int    `json:"scale,omitempty"`
	Offset int    `json:"offset"`
}

func writeFields(w io.Writer, t *openedTable, output string) error {
	fields := t.Fields()
	infos := make([]fieldInfo, len(fields))
	for i, f := range fields {
		infos[i] = fieldInfo{Name: f.Name, Type: f.Type.String(), Size: f.Length, Scale: f.Scale, Offset: f.Offset}
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tSIZE\tOFFSET")
	for i, f := range fields {
		size := fmt.Sprintf("%d", f.Length)
		if f.Type == value.BCD {
			size = fmt.Sprintf("%d,%d", f.Length, f.Scale)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i+1, f.Name, f.Type, size, f.Offset)
	}
	return tw.Flush()
}
