package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextChargeDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		from      time.Time
		frequency string
		want      time.Time
	}{
		{name: "weekly", from: day(2026, 3, 2), frequency: "weekly", want: day(2026, 3, 9)},
		{name: "weekly across month", from: day(2026, 3, 30), frequency: "WEEKLY", want: day(2026, 4, 6)},
		{name: "biweekly", from: day(2026, 3, 2), frequency: "biweekly", want: day(2026, 3, 16)},
		{name: "monthly", from: day(2026, 1, 15), frequency: "monthly", want: day(2026, 2, 15)},
		{name: "monthly across year", from: day(2026, 12, 10), frequency: "monthly", want: day(2027, 1, 10)},
		{name: "month end into february", from: day(2026, 1, 31), frequency: "monthly", want: day(2026, 2, 28)},
		{name: "leap february", from: day(2028, 1, 30), frequency: "monthly", want: day(2028, 2, 29)},
		{name: "day 29 keeps month end", from: day(2026, 3, 29), frequency: "monthly", want: day(2026, 4, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextChargeDate(tt.from, tt.frequency)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.True(t, got.After(tt.from))
		})
	}
}

func TestNextChargeDate_StrictlyIncreasing(t *testing.T) {
	for _, frequency := range []string{"weekly", "biweekly", "monthly"} {
		current := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 24; i++ {
			next, err := NextChargeDate(current, frequency)
			require.NoError(t, err)
			require.True(t, next.After(current), "%s: %s is not after %s", frequency, next, current)
			current = next
		}
	}
}

func TestNextChargeDate_UnsupportedFrequency(t *testing.T) {
	_, err := NextChargeDate(time.Now(), "yearly")
	assert.Error(t, err)
}
