// Package datetime converts Paradox date, time and timestamp values to text.
//
// Dates are day numbers where day 1 is 0001-01-01 in the proleptic Gregorian
// calendar. Times are milliseconds since midnight. Timestamps are milliseconds
// since day 0 and share the date epoch.
//
// Templates use the tokens YYYY, MM, DD, HH, MI and SS. Anything else is
// copied to the output unchanged:
//
//	s, err := datetime.FormatDate(737425, "DD.MM.YYYY") // "01.01.2020"
package datetime

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ssargent/pxdb/pkg/value"
)

const (
	// MillisPerDay is the length of a day in the time and timestamp encodings
	MillisPerDay = 86_400_000

	// MaxDay is the day number of 9999-12-31
	MaxDay = 3_652_059
)

// FormatError reports a value or template that cannot be rendered
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "datetime: " + e.Reason
}

func errorf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// DateToTime returns midnight UTC of the given day number
func DateToTime(days int64) (time.Time, error) {
	if days < 1 || days > MaxDay {
		return time.Time{}, errorf("day %d outside 0001-01-01..9999-12-31", days)
	}
	return time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(days-1)), nil
}

// TimeToTime returns the time of day on 0001-01-01 UTC
func TimeToTime(ms int64) (time.Time, error) {
	if ms < 0 || ms >= MillisPerDay {
		return time.Time{}, errorf("time %dms outside one day", ms)
	}
	return time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond), nil
}

// TimestampToTime splits ms into a day number and a time of day
func TimestampToTime(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return time.Time{}, errorf("timestamp %v is not a finite non-negative number", ms)
	}

	days := math.Floor(ms / MillisPerDay)
	if days > MaxDay {
		return time.Time{}, errorf("timestamp day %.0f after 9999-12-31", days)
	}
	d, err := DateToTime(int64(days))
	if err != nil {
		return time.Time{}, err
	}

	rest := int64(ms - days*MillisPerDay)
	return d.Add(time.Duration(rest) * time.Millisecond), nil
}

// ToTime converts a Date, Time or Timestamp value to a UTC time.Time
func ToTime(v value.Value) (time.Time, error) {
	if v.IsNull() {
		return time.Time{}, errorf("%s value is null", v.Type)
	}

	switch v.Type {
	case value.Date:
		n, ok := v.Int()
		if !ok {
			break
		}
		return DateToTime(n)
	case value.Time:
		n, ok := v.Int()
		if !ok {
			break
		}
		return TimeToTime(n)
	case value.Timestamp:
		f, ok := v.Float()
		if !ok {
			break
		}
		return TimestampToTime(f)
	}
	return time.Time{}, errorf("%s value of kind %s is not a date, time or timestamp", v.Type, v.Kind)
}

// Format renders a Date, Time or Timestamp value through template
func Format(v value.Value, template string) (string, error) {
	t, err := ToTime(v)
	if err != nil {
		return "", err
	}
	return render(t, template, v.Type != value.Time)
}

// FormatDate renders a day number
func FormatDate(days int64, template string) (string, error) {
	t, err := DateToTime(days)
	if err != nil {
		return "", err
	}
	return render(t, template, true)
}

// FormatTime renders milliseconds since midnight. Date tokens are rejected.
func FormatTime(ms int64, template string) (string, error) {
	t, err := TimeToTime(ms)
	if err != nil {
		return "", err
	}
	return render(t, template, false)
}

// FormatTimestamp renders milliseconds since day 0
func FormatTimestamp(ms float64, template string) (string, error) {
	t, err := TimestampToTime(ms)
	if err != nil {
		return "", err
	}
	return render(t, template, true)
}

type token struct {
	text   string
	isDate bool
	get    func(time.Time) int
	width  int
}

// ordered so that longer tokens win
var tokens = []token{
	{text: "YYYY", isDate: true, width: 4, get: func(t time.Time) int { return t.Year() }},
	{text: "MM", isDate: true, width: 2, get: func(t time.Time) int { return int(t.Month()) }},
	{text: "DD", isDate: true, width: 2, get: func(t time.Time) int { return t.Day() }},
	{text: "HH", width: 2, get: func(t time.Time) int { return t.Hour() }},
	{text: "MI", width: 2, get: func(t time.Time) int { return t.Minute() }},
	{text: "SS", width: 2, get: func(t time.Time) int { return t.Second() }},
}

func render(t time.Time, template string, hasDate bool) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + 4)

	for i := 0; i < len(template); {
		matched := false
		for _, tok := range tokens {
			if !strings.HasPrefix(template[i:], tok.text) {
				continue
			}
			if tok.isDate && !hasDate {
				return "", errorf("token %s needs a date but the value is a time of day", tok.text)
			}
			fmt.Fprintf(&b, "%0*d", tok.width, tok.get(t))
			i += len(tok.text)
			matched = true
			break
		}
		if !matched {
			b.WriteByte(template[i])
			i++
		}
	}
	return b.String(), nil
}
