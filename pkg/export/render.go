package export

import (
	"encoding/hex"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/datetime"
	"github.com/ssargent/pxdb/pkg/value"
)

// ISO templates used where a sink needs a stable, sortable date format
const (
	isoDate      = "YYYY-MM-DD"
	isoTime      = "HH:MI:SS"
	isoTimestamp = "YYYY-MM-DD HH:MI:SS"
)

// Renderer turns values into text using the export configuration
type Renderer struct {
	cfg config.Export
}

// NewRenderer creates a renderer. Empty templates fall back to ISO formats.
func NewRenderer(cfg config.Export) *Renderer {
	if cfg.DateFormat == "" {
		cfg.DateFormat = isoDate
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = isoTime
	}
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = isoTimestamp
	}
	return &Renderer{cfg: cfg}
}

// Text renders v. Nulls, blob references and unsupported values become the
// configured null text.
func (r *Renderer) Text(v value.Value) (string, error) {
	switch v.Kind {
	case value.KindNull, value.KindBlobRef, value.KindUnsupported:
		return r.cfg.NullText, nil
	case value.KindString:
		s, _ := v.Str()
		return s, nil
	case value.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b), nil
	case value.KindBytes:
		b, _ := v.Bytes()
		return hex.EncodeToString(b), nil
	}

	switch v.Type {
	case value.Date:
		return datetime.Format(v, r.cfg.DateFormat)
	case value.Time:
		return datetime.Format(v, r.cfg.TimeFormat)
	case value.Timestamp:
		return datetime.Format(v, r.cfg.TimestampFormat)
	case value.Currency:
		return fixed(v, r.cfg.CurrencyDecimals), nil
	case value.Number:
		return fixed(v, r.cfg.NumberDecimals), nil
	}

	if n, ok := v.Int(); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return r.cfg.NullText, nil
}

func fixed(v value.Value, places int) string {
	f, _ := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return decimal.NewFromFloat(f).StringFixed(int32(places))
}

// Native converts v to a database/sql argument: nil, int64, float64, string
// or []byte. Dates and times become ISO text.
func (r *Renderer) Native(v value.Value) (interface{}, error) {
	switch v.Kind {
	case value.KindNull, value.KindUnsupported:
		return nil, nil
	case value.KindBlobRef:
		ref, _ := v.BlobRef()
		if b, ok := ref.Inline(); ok {
			return b, nil
		}
		return nil, nil
	case value.KindBool:
		if b, _ := v.Bool(); b {
			return int64(1), nil
		}
		return int64(0), nil
	}

	switch v.Type {
	case value.Date:
		return datetime.Format(v, isoDate)
	case value.Time:
		return datetime.Format(v, isoTime)
	case value.Timestamp:
		return datetime.Format(v, isoTimestamp)
	}
	// SQLite has no NaN; it would be stored as NULL anyway
	if f, ok := v.Float(); ok && math.IsNaN(f) {
		return nil, nil
	}
	return v.Interface(), nil
}

// affinity is the SQLite column type for a field type
func affinity(t value.FieldType) string {
	switch t {
	case value.Short, value.Long, value.AutoInc, value.Logical:
		return "INTEGER"
	case value.Number, value.Currency:
		return "REAL"
	case value.Alpha, value.BCD, value.Date, value.Time, value.Timestamp:
		return "TEXT"
	}
	return "BLOB"
}
