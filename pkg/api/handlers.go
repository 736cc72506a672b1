package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/datetime"
	"github.com/ssargent/pxdb/pkg/export"
	"github.com/ssargent/pxdb/pkg/logging"
	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Server holds the API server state
type Server struct {
	table    Table
	renderer *export.Renderer
	config   ServerConfig
	metrics  *Metrics
	logger   logrus.FieldLogger
}

// NewServer creates a new API server. Date, time and timestamp values are
// rendered with r; a nil r uses the default export formats.
func NewServer(t Table, r *export.Renderer, cfg ServerConfig, metrics *Metrics, logger logrus.FieldLogger) *Server {
	if r == nil {
		r = export.NewRenderer(config.DefaultConfig().Export)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if metrics != nil {
		metrics.SetTableRecords(t.RecordCount())
	}
	return &Server{
		table:    t,
		renderer: r,
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	h := s.table.Header()
	sendSuccess(w, TableSummary{
		Name:       h.TableName,
		Version:    h.Version,
		FileType:   h.FileType,
		Records:    s.table.RecordCount(),
		Fields:     int(h.NumFields),
		RecordSize: h.RecordSize,
		HeaderSize: h.HeaderSize,
		BlockSize:  h.BlockSize,
		FileBlocks: h.FileBlocks,
		CodePage:   h.CodePage,
		AutoInc:    h.AutoInc,
		Layout:     s.table.Layout().String(),
	})
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := s.table.Fields()
	out := make([]FieldInfo, len(fields))
	for i, f := range fields {
		out[i] = FieldInfo{
			Index:  i,
			Name:   f.Name,
			Type:   f.Type.String(),
			Length: f.Length,
			Scale:  f.Scale,
			Offset: f.Offset,
		}
	}
	sendSuccess(w, out)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		sendError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		sendError(w, fmt.Sprintf("limit must be between 1 and %d", maxPageSize), http.StatusBadRequest)
		return
	}

	total := s.table.RecordCount()
	page := RecordPage{Offset: offset, Limit: limit, Total: total, Records: []Record{}}
	for i := offset; i < total && i < offset+limit; i++ {
		rec, err := s.record(i)
		if err != nil {
			s.sendFetchError(w, i, err)
			return
		}
		page.Records = append(page.Records, rec)
	}
	sendSuccess(w, page)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		sendError(w, "record index must be an integer", http.StatusBadRequest)
		return
	}

	rec, err := s.record(index)
	if err != nil {
		s.sendFetchError(w, index, err)
		return
	}
	sendSuccess(w, rec)
}

func (s *Server) record(i int) (Record, error) {
	start := time.Now()
	vals, err := s.table.FetchRecord(i)
	if s.metrics != nil {
		s.metrics.RecordFetch(err == nil, time.Since(start))
	}
	if err != nil {
		return Record{}, err
	}

	fields := s.table.Fields()
	out := Record{Index: i, Values: make(map[string]interface{}, len(vals))}
	for j, v := range vals {
		jv, err := s.jsonValue(v)
		if err != nil {
			return Record{}, fmt.Errorf("field %s: %w", fields[j].Name, err)
		}
		out.Values[fields[j].Name] = jv
	}
	return out, nil
}

// jsonValue maps a decoded value onto a JSON friendly Go value
func (s *Server) jsonValue(v value.Value) (interface{}, error) {
	switch v.Kind {
	case value.KindNull, value.KindUnsupported:
		return nil, nil
	case value.KindBlobRef:
		ref, _ := v.BlobRef()
		_, inline := ref.Inline()
		return BlobInfo{Length: ref.Length, ModNr: ref.ModNr, Inline: inline}, nil
	}

	switch v.Type {
	case value.Date, value.Time, value.Timestamp:
		return s.renderer.Text(v)
	}
	// JSON has no NaN or Inf; send them as strings
	if f, ok := v.Float(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return v.Interface(), nil
}

func (s *Server) sendFetchError(w http.ResponseWriter, index int, err error) {
	var (
		ce *table.CorruptionError
		fe *datetime.FormatError
	)
	switch {
	case errors.Is(err, table.ErrNotFound):
		sendError(w, fmt.Sprintf("record %d not found", index), http.StatusNotFound)
	case errors.As(err, &ce), errors.As(err, &fe):
		s.logger.WithField("record", index).WithError(err).Warn("corrupt record")
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, table.ErrClosed):
		sendError(w, "table is closed", http.StatusServiceUnavailable)
	default:
		s.logger.WithField("record", index).WithError(err).Error("record fetch failed")
		sendError(w, fmt.Sprintf("failed to read record %d: %v", index, err), http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
