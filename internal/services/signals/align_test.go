package signals

import (
	"math"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(date string, v float64) models.Observation {
	return models.Observation{Date: day(date), Value: v}
}

func TestCalendar(t *testing.T) {
	got := Calendar(day("2024-02-27"), day("2024-03-02"))
	require.Len(t, got, 5)
	assert.Equal(t, day("2024-02-29"), got[2])
	assert.Nil(t, Calendar(day("2024-03-02"), day("2024-03-01")))
}

func TestAlignCompleteness(t *testing.T) {
	btc := []models.Observation{
		obs("2024-01-05", 105),
		obs("2024-01-01", 100), // unsorted input
		obs("2024-01-03", 103),
	}
	frame := Align(day("2024-01-10"), btc)

	require.Equal(t, 10, frame.Len())
	for i := 1; i < frame.Len(); i++ {
		assert.Equal(t, frame.Dates[i-1].AddDate(0, 0, 1), frame.Dates[i], "gap at %d", i)
	}
	assert.Equal(t, []float64{100, 100, 103, 103, 105, 105, 105, 105, 105, 105}, frame.Columns[0])
}

func TestAlignEmptyAnchor(t *testing.T) {
	assert.Zero(t, Align(day("2024-01-10"), nil).Len())
	assert.Zero(t, Align(day("2024-01-10"), []models.Observation{obs("2024-01-01", math.NaN())}).Len())
	assert.Zero(t, Align(day("2024-01-10"), []models.Observation{obs("2024-02-01", 1)}).Len())
}

func TestForwardFill(t *testing.T) {
	dates := Calendar(day("2024-01-01"), day("2024-01-06"))
	tests := []struct {
		name string
		obs  []models.Observation
		want []float64
	}{
		{
			name: "starts late",
			obs:  []models.Observation{obs("2024-01-03", 7)},
			want: []float64{math.NaN(), math.NaN(), 7, 7, 7, 7},
		},
		{
			name: "seeded from before the calendar",
			obs:  []models.Observation{obs("2023-12-01", 1), obs("2023-12-20", 2), obs("2024-01-04", 3)},
			want: []float64{2, 2, 2, 3, 3, 3},
		},
		{
			name: "last duplicate wins",
			obs:  []models.Observation{obs("2024-01-02", 1), obs("2024-01-02", 9)},
			want: []float64{math.NaN(), 9, 9, 9, 9, 9},
		},
		{
			name: "non-finite values are gaps",
			obs:  []models.Observation{obs("2024-01-01", 4), obs("2024-01-03", math.NaN()), obs("2024-01-05", math.Inf(1))},
			want: []float64{4, 4, 4, 4, 4, 4},
		},
		{
			name: "empty series",
			obs:  nil,
			want: []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForwardFill(dates, tt.obs)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]), "index %d", i)
				} else {
					assert.Equal(t, tt.want[i], got[i], "index %d", i)
				}
			}
		})
	}
}

func TestForwardFillIgnoresTimeOfDay(t *testing.T) {
	dates := Calendar(day("2024-01-01"), day("2024-01-02"))
	got := ForwardFill(dates, []models.Observation{{Date: day("2024-01-02").Add(15 * time.Hour), Value: 5}})
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 5.0, got[1])
}
