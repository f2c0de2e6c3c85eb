package algo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	assert.Nil(t, Median(nil), "empty sample has no median")
	assert.Nil(t, Median([]float64{}))

	single := Median([]float64{5})
	require.NotNil(t, single)
	assert.Equal(t, 5.0, *single)

	even := Median([]float64{1, 3})
	require.NotNil(t, even)
	assert.Equal(t, 2.0, *even)
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean(nil))

	m := Mean([]float64{2, 4, 6})
	require.NotNil(t, m)
	assert.Equal(t, 4.0, *m)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.1235, Round(0.123456, 4))
	assert.Equal(t, -0.1235, Round(-0.123456, 4))
	assert.Equal(t, 0.1235, Round(Round(0.123456, 4), 4), "rounding is idempotent")
	assert.Equal(t, 12.3, Round(12.34, 1))
}

func TestRoundInt(t *testing.T) {
	assert.Equal(t, 3, RoundInt(2.5))
	assert.Equal(t, 2, RoundInt(2.4))
	assert.Equal(t, -3, RoundInt(-2.5))
}

func TestFormatLift(t *testing.T) {
	pos := 0.2
	neg := -0.05
	zero := 0.0
	assert.Equal(t, "+20.0%", FormatLift(&pos))
	assert.Equal(t, "-5.0%", FormatLift(&neg))
	assert.Equal(t, "+0.0%", FormatLift(&zero))
	assert.Equal(t, "N/A", FormatLift(nil))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "RFC3339", input: "2025-05-01T00:00:00Z", ok: true},
		{name: "RFC3339 nano", input: "2025-05-01T00:00:00.123456Z", ok: true},
		{name: "date only", input: "2025-05-01", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "last tuesday", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, 2025, parsed.Year())
				assert.Equal(t, time.May, parsed.Month())
			}
		})
	}
}

func TestWholeDays(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 14, WholeDays(start, start.AddDate(0, 0, 14)))
	assert.Equal(t, 0, WholeDays(start, start))
	// Partial days round to the nearest whole day.
	assert.Equal(t, 14, WholeDays(start, start.AddDate(0, 0, 14).Add(-time.Hour)))
	assert.Equal(t, 1, WholeDays(start, start.Add(13*time.Hour)))
	// End before start yields a negative span.
	assert.Equal(t, -2, WholeDays(start, start.AddDate(0, 0, -2)))
}

func TestYearMonth(t *testing.T) {
	assert.Equal(t, "2025-05", YearMonth(time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12", YearMonth(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}
