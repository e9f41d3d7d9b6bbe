package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	t.Run("empty and null are missing", func(t *testing.T) {
		assert.Nil(t, ParseValue(""))
		assert.Nil(t, ParseValue("   "))
		assert.Nil(t, ParseValue("null"))
		assert.Nil(t, ParseValue(" NULL "))
		assert.Nil(t, ParseValue("Null"))
	})

	t.Run("zero is a value", func(t *testing.T) {
		v := ParseValue("0")
		require.NotNil(t, v)
		assert.Equal(t, 0.0, *v)
	})

	t.Run("decimal with whitespace", func(t *testing.T) {
		v := ParseValue(" 12.5 ")
		require.NotNil(t, v)
		assert.Equal(t, 12.5, *v)
	})

	t.Run("scientific and negative", func(t *testing.T) {
		v := ParseValue("-1e3")
		require.NotNil(t, v)
		assert.Equal(t, -1000.0, *v)
	})

	t.Run("non-numeric is missing", func(t *testing.T) {
		assert.Nil(t, ParseValue("abc"))
		assert.Nil(t, ParseValue("12abc"))
		assert.Nil(t, ParseValue("NaN"))
	})

	t.Run("infinity parses", func(t *testing.T) {
		v := ParseValue("Infinity")
		require.NotNil(t, v)
		assert.True(t, math.IsInf(*v, 1))
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339 zulu", "2020-02-03T04:05:06Z", time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"rfc3339 millis", "2020-02-03T04:05:06.250Z", time.Date(2020, 2, 3, 4, 5, 6, 250_000_000, time.UTC)},
		{"rfc3339 offset normalized to utc", "2020-02-03T01:00:00-03:00", time.Date(2020, 2, 3, 4, 0, 0, 0, time.UTC)},
		{"date only", "2020-02-03", time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"space separated", "2020-02-03 13:00:00", time.Date(2020, 2, 3, 13, 0, 0, 0, time.UTC)},
		{"space separated no seconds", "2020-02-03 13:00", time.Date(2020, 2, 3, 13, 0, 0, 0, time.UTC)},
		{"t separated no zone", "2020-02-03T13:30:00", time.Date(2020, 2, 3, 13, 30, 0, 0, time.UTC)},
		{"us date", "2/3/2020", time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"us date time", "2/3/2020 7:15", time.Date(2020, 2, 3, 7, 15, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2020-02-03  ", time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"year and month", "2020-02", time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"year only", "2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"four digit year", "1510", time.Date(1510, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"zulu without seconds", "2020-02-03T04:05Z", time.Date(2020, 2, 3, 4, 5, 0, 0, time.UTC)},
		{"offset without seconds", "2020-02-03T04:05+01:00", time.Date(2020, 2, 3, 3, 5, 0, 0, time.UTC)},
		{"offset without colon", "2020-02-03T04:05:06+0000", time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"negative offset without colon", "2020-02-03T04:05:06-0130", time.Date(2020, 2, 3, 5, 35, 6, 0, time.UTC)},
		{"fraction with offset without colon", "2020-02-03T04:05:06.250+0000", time.Date(2020, 2, 3, 4, 5, 6, 250e6, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	t.Run("unparseable", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "not a date", "2020-13-45", "20-02", "2020-2-3x"} {
			_, ok := ParseDate(raw)
			assert.False(t, ok, raw)
		}
	})
}

func TestTimeField(t *testing.T) {
	t.Run("priority order", func(t *testing.T) {
		v, ok := timeField(map[string]string{"Time": "c", "time ": "b", "time": "a"})
		require.True(t, ok)
		assert.Equal(t, "a", v)

		v, ok = timeField(map[string]string{"Time": "c", "time ": "b"})
		require.True(t, ok)
		assert.Equal(t, "b", v)

		v, ok = timeField(map[string]string{"Time": "c"})
		require.True(t, ok)
		assert.Equal(t, "c", v)
	})

	t.Run("first present wins even when empty", func(t *testing.T) {
		v, ok := timeField(map[string]string{"time": "", "Time": "2020-01-01"})
		require.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := timeField(map[string]string{"TIME": "2020-01-01"})
		assert.False(t, ok)
	})
}

func TestKeys(t *testing.T) {
	ts := time.Date(2020, time.February, 29, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2020-02-29T23:30:00.000Z", ISOTimestamp(ts))
	assert.Equal(t, "2020-02-29", ISODay(ts))
	assert.Equal(t, "2020-01", MonthKey(2020, time.February))
	assert.Equal(t, "2020-00", MonthKey(2020, time.January))
	assert.Equal(t, "2020-11", MonthKey(2020, time.December))

	// A non-UTC instant is keyed by its UTC day.
	local := time.Date(2020, time.March, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, "2020-02-29", ISODay(local))
}

func TestClassifyValue(t *testing.T) {
	zero, five := 0.0, 5.0
	assert.Equal(t, StatusMissing, ClassifyValue(nil))
	assert.Equal(t, StatusZero, ClassifyValue(&zero))
	assert.Equal(t, StatusDetect, ClassifyValue(&five))
}
