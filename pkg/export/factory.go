package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Export formats understood by the default sink factory
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatPebble = "pebble"
)

// SinkFactory creates sinks by format name
type SinkFactory interface {
	// CreateSink opens a sink writing to out. tableName names the SQLite
	// table or Pebble key prefix.
	CreateSink(format, out, tableName string, r *Renderer) (Sink, error)
}

// DefaultSinkFactory is the default implementation of SinkFactory
type DefaultSinkFactory struct{}

// NewSinkFactory creates a new sink factory
func NewSinkFactory() SinkFactory {
	return &DefaultSinkFactory{}
}

// CreateSink opens a CSV file, SQLite database or Pebble store
func (f *DefaultSinkFactory) CreateSink(format, out, tableName string, r *Renderer) (Sink, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return CreateCSV(out, r)
	case FormatSQLite:
		return OpenSQLite(out, tableName, r)
	case FormatPebble:
		return OpenPebble(out, tableName, r)
	}
	return nil, fmt.Errorf("unknown export format %q (want csv, sqlite or pebble)", format)
}

// DefaultOutput derives an output path from the table path: people.db
// becomes people.csv, people.sqlite or the directory people.pebble
func DefaultOutput(dbPath, format string) string {
	base := strings.TrimSuffix(dbPath, filepath.Ext(dbPath))
	return base + "." + strings.ToLower(format)
}
