package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/pxdb/pkg/blobfile"
	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// openedTable is a table plus the blob file found next to it
type openedTable struct {
	*table.Document
	blobPath string
	blobs    *blobfile.File
}

func (t *openedTable) Close() error {
	err := t.Document.Close()
	if t.blobs != nil {
		if cerr := t.blobs.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openTable opens path with the decode settings of the loaded config. A
// sibling .MB file, when present, resolves blob fields.
func openTable(path string) (*openedTable, error) {
	layout, err := table.ParseLayout(cfg.Decode.Layout)
	if err != nil {
		return nil, err
	}
	opts := []table.Option{
		table.WithLogger(logger),
		table.WithLayout(layout),
		table.WithCodePage(cfg.Decode.CodePage),
	}

	t := &openedTable{}
	if mb, ok := blobfile.FindSibling(path); ok {
		blobs, err := blobfile.OpenFile(mb)
		if err != nil {
			logger.WithError(err).WithField("path", mb).Warn("ignoring blob file")
		} else {
			t.blobPath = mb
			t.blobs = blobs
			opts = append(opts, table.WithBlobResolver(blobs))
		}
	}

	doc, err := table.OpenFile(path, opts...)
	if err != nil {
		if t.blobs != nil {
			t.blobs.Close()
		}
		return nil, err
	}
	t.Document = doc
	return t, nil
}

// tableName prefers the name stored in the header over the file name
func tableName(doc *table.Document, path string) string {
	name := strings.TrimSpace(doc.Header().TableName)
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// blobText renders a blob field for display. Memo payloads are decoded in
// the table's code page; binary payloads are summarised.
func blobText(doc *table.Document, v value.Value) string {
	ref, _ := v.BlobRef()
	switch v.Type {
	case value.MemoBlob, value.FmtMemoBlob:
	default:
		return fmt.Sprintf("<%s %d bytes>", v.Type, ref.Length)
	}

	rc, err := doc.OpenBlob(ref)
	if err != nil {
		return fmt.Sprintf("<memo %d bytes, unresolved>", ref.Length)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Sprintf("<memo %d bytes, unreadable>", ref.Length)
	}
	return strings.TrimRight(doc.Text(data), "\x00")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
