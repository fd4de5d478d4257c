package wiredate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWire(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already wire form", "2024-03-05T14:30", "2024-03-05T14:30"},
		{"seconds dropped", "2024-03-05T14:30:59", "2024-03-05T14:30"},
		{"space separator", "2024-03-05 14:30", "2024-03-05T14:30"},
		{"date only", "2024-03-05", "2024-03-05T00:00"},
		{"empty", "", ""},
		{"garbage kept as-is", "not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToWire(tt.in))
		})
	}
}

func TestToLocalInput(t *testing.T) {
	assert.Equal(t, "", ToLocalInput(""))
	assert.Equal(t, "2024-03-05T14:30", ToLocalInput("2024-03-05T14:30"))
	assert.Equal(t, "2024-03-05T14:30", ToLocalInput("2024-03-05T14:30:12"))

	// Zoned input is rendered from local components.
	zoned := time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, zoned.In(time.Local).Format(WireLayout), ToLocalInput(zoned.Format(time.RFC3339)))
}

func TestRoundTripIdempotence(t *testing.T) {
	wire := []string{
		"2024-01-01T00:00",
		"2024-02-29T23:59",
		"1999-12-31T12:00",
	}
	for _, x := range wire {
		assert.Equal(t, x, ToWire(ToLocalInput(x)), "round trip for %s", x)
	}
}

func TestParseFallbackAppendsSeconds(t *testing.T) {
	// A trailing-minute string missing its seconds still parses via the
	// appended-seconds fallback path.
	got, err := Parse("2024-07-04T08:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 4, 8, 5, 0, 0, time.Local), got)

	_, err = Parse("definitely not a date")
	require.Error(t, err)
}
