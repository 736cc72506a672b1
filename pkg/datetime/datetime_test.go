package datetime

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/pxdb/pkg/value"
)

func TestFormatDate(t *testing.T) {
	testCases := []struct {
		name     string
		days     int64
		template string
		want     string
	}{
		{"iso", 737425, "YYYY-MM-DD", "2020-01-01"},
		{"first day", 1, "YYYY-MM-DD", "0001-01-01"},
		{"last day", MaxDay, "YYYY-MM-DD", "9999-12-31"},
		{"leap day", 730179, "DD/MM/YYYY", "29/02/2000"},
		{"literal text", 737425, "on DD. of MM, YYYY!", "on 01. of 01, 2020!"},
		{"time tokens are midnight", 737425, "YYYY-MM-DD HH:MI:SS", "2020-01-01 00:00:00"},
		{"empty template", 737425, "", ""},
		{"lowercase is literal", 737425, "yyyy-mm-dd", "yyyy-mm-dd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatDate(tc.days, tc.template)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatDate_OutOfRange(t *testing.T) {
	for _, days := range []int64{0, -1, MaxDay + 1} {
		_, err := FormatDate(days, "YYYY")
		var fe *FormatError
		assert.True(t, errors.As(err, &fe), "day %d", days)
	}
}

func TestFormatTime(t *testing.T) {
	got, err := FormatTime(45296000, "HH:MI:SS")
	require.NoError(t, err)
	assert.Equal(t, "12:34:56", got)

	got, err = FormatTime(MillisPerDay-1, "HH:MI:SS")
	require.NoError(t, err)
	assert.Equal(t, "23:59:59", got)

	_, err = FormatTime(MillisPerDay, "HH:MI:SS")
	assert.Error(t, err)

	_, err = FormatTime(-1, "HH:MI:SS")
	assert.Error(t, err)
}

func TestFormatTime_DateTokensRejected(t *testing.T) {
	_, err := FormatTime(1000, "YYYY HH")
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Error(), "YYYY")
}

func TestFormatTimestamp(t *testing.T) {
	got, err := FormatTimestamp(63713565296000, "YYYY-MM-DD HH:MI:SS")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01 12:34:56", got)

	// fractional milliseconds are truncated
	got, err = FormatTimestamp(63713565296999.5, "SS")
	require.NoError(t, err)
	assert.Equal(t, "56", got)

	for _, bad := range []float64{math.NaN(), math.Inf(1), -1, 1000} {
		_, err := FormatTimestamp(bad, "YYYY")
		assert.Error(t, err, "timestamp %v", bad)
	}
}

func TestFormat_Values(t *testing.T) {
	testCases := []struct {
		name     string
		v        value.Value
		template string
		want     string
		wantErr  bool
	}{
		{"date", value.Integer(value.Date, 737425), "YYYY-MM-DD", "2020-01-01", false},
		{"time", value.Integer(value.Time, 45296000), "HH:MI", "12:34", false},
		{"timestamp", value.Float(value.Timestamp, 63713565296000), "YYYY HH", "2020 12", false},
		{"time with date token", value.Integer(value.Time, 0), "DD", "", true},
		{"null date", value.Null(value.Date), "YYYY", "", true},
		{"not a date", value.Integer(value.Long, 5), "YYYY", "", true},
		{"wrong kind", value.String(value.Date, "2020"), "YYYY", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.v, tc.template)
			if tc.wantErr {
				var fe *FormatError
				assert.True(t, errors.As(err, &fe))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormat_Deterministic(t *testing.T) {
	v := value.Float(value.Timestamp, 63713565296000)
	first, err := Format(v, "YYYY-MM-DD HH:MI:SS")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Format(v, "YYYY-MM-DD HH:MI:SS")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestToTime(t *testing.T) {
	got, err := ToTime(value.Integer(value.Date, 737425))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ToTime(value.Float(value.Timestamp, 63713565296000))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 12, 34, 56, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
