package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// CSVSink writes a header row of field names followed by one row per record
type CSVSink struct {
	w      *csv.Writer
	r      *Renderer
	closer io.Closer
	row    []string
}

// NewCSVSink writes CSV to w. w is not closed by Close.
func NewCSVSink(w io.Writer, r *Renderer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w), r: r}
}

// CreateCSV creates (or truncates) the file at path and writes CSV to it
func CreateCSV(path string, r *Renderer) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	s := NewCSVSink(f, r)
	s.closer = f
	return s, nil
}

// Begin writes the header row
func (s *CSVSink) Begin(schema []table.FieldDescriptor) error {
	header := make([]string, len(schema))
	for i, f := range schema {
		header[i] = f.Name
	}
	s.row = make([]string, len(schema))
	return s.w.Write(header)
}

// Write renders and writes one record
func (s *CSVSink) Write(_ int, rec []value.Value) error {
	for i, v := range rec {
		text, err := s.r.Text(v)
		if err != nil {
			return err
		}
		s.row[i] = text
	}
	return s.w.Write(s.row)
}

// Close flushes buffered rows and closes the file opened by CreateCSV
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
