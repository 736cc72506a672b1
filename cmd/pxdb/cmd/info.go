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

	"github.com/ssargent/pxdb/pkg/table"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the header of a table",
	Long: `Show the header of a Paradox table: format version, record count,
block geometry and code page.

Examples:
  pxdb info CUSTOMER.DB
  pxdb info CUSTOMER.DB --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		defer t.Close()

		return writeInfo(cmd.OutOrStdout(), t, output)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

type tableInfo struct {
	Name       string `json:"name"`
	Version    int    `json:"version"`
	FileType   string `json:"file_type"`
	Records    int    `json:"records"`
	Fields     int    `json:"fields"`
	RecordSize uint16 `json:"record_size"`
	HeaderSize uint16 `json:"header_size"`
	BlockSize  int    `json:"block_size"`
	Blocks     uint16 `json:"blocks"`
	CodePage   uint16 `json:"code_page"`
	AutoInc    uint32 `json:"auto_inc"`
	Layout     string `json:"layout"`
	BlobFile   string `json:"blob_file,omitempty"`
}

func fileTypeName(ft uint8) string {
	switch ft {
	case table.FileTypeKeyed:
		return "keyed"
	case table.FileTypeUnkeyed:
		return "unkeyed"
	}
	return fmt.Sprintf("type %d", ft)
}

func writeInfo(w io.Writer, t *openedTable, output string) error {
	h := t.Header()
	info := tableInfo{
		Name:       h.TableName,
		Version:    h.Version,
		FileType:   fileTypeName(h.FileType),
		Records:    t.RecordCount(),
		Fields:     t.FieldCount(),
		RecordSize: h.RecordSize,
		HeaderSize: h.HeaderSize,
		BlockSize:  h.BlockSize,
		Blocks:     h.FileBlocks,
		CodePage:   h.CodePage,
		AutoInc:    h.AutoInc,
		Layout:     t.Layout().String(),
		BlobFile:   t.blobPath,
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Table:\t%s\n", info.Name)
	fmt.Fprintf(tw, "Version:\t%d.%d\n", info.Version/10, info.Version%10)
	fmt.Fprintf(tw, "File type:\t%s\n", info.FileType)
	fmt.Fprintf(tw, "Records:\t%d\n", info.Records)
	fmt.Fprintf(tw, "Fields:\t%d\n", info.Fields)
	fmt.Fprintf(tw, "Record size:\t%d\n", info.RecordSize)
	fmt.Fprintf(tw, "Header size:\t%d\n", info.HeaderSize)
	fmt.Fprintf(tw, "Block size:\t%d\n", info.BlockSize)
	fmt.Fprintf(tw, "Blocks:\t%d\n", info.Blocks)
	fmt.Fprintf(tw, "Code page:\t%d\n", info.CodePage)
	fmt.Fprintf(tw, "Auto increment:\t%d\n", info.AutoInc)
	fmt.Fprintf(tw, "Layout:\t%s\n", info.Layout)
	if info.BlobFile != "" {
		fmt.Fprintf(tw, "Blob file:\t%s\n", info.BlobFile)
	}
	return tw.Flush()
}
