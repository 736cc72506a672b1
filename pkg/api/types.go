package api

import (
	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind    string
	Port    int
	APIKey  string        // empty disables authentication
	Formats config.Export // date and time templates for record values
}

// Table is the read side of a Paradox table the server exposes.
// *table.Document satisfies it.
type Table interface {
	Header() table.Header
	Layout() table.Layout
	Fields() []table.FieldDescriptor
	RecordCount() int
	FetchRecord(i int) ([]value.Value, error)
}

// TableSummary is the body of GET /table
type TableSummary struct {
	Name       string `json:"name"`
	Version    int    `json:"version"`
	FileType   uint8  `json:"file_type"`
	Records    int    `json:"records"`
	Fields     int    `json:"fields"`
	RecordSize uint16 `json:"record_size"`
	HeaderSize uint16 `json:"header_size"`
	BlockSize  int    `json:"block_size"`
	FileBlocks uint16 `json:"file_blocks"`
	CodePage   uint16 `json:"code_page"`
	AutoInc    uint32 `json:"auto_inc"`
	Layout     string `json:"layout"`
}

// FieldInfo is one entry of GET /fields
type FieldInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Length int    `json:"length"`
	Scale  int    `json:"scale,omitempty"`
	Offset int    `json:"offset"`
}

// Record is one decoded record keyed by field name
type Record struct {
	Index  int                    `json:"index"`
	Values map[string]interface{} `json:"values"`
}

// RecordPage is the body of GET /records
type RecordPage struct {
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
	Total   int      `json:"total"`
	Records []Record `json:"records"`
}

// BlobInfo stands in for a blob field, whose payload is not served inline
type BlobInfo struct {
	Length uint32 `json:"length"`
	ModNr  uint16 `json:"modnr"`
	Inline bool   `json:"inline"`
}
