package signals

import (
	"bytes"
	"strings"
	"testing"

	"CoinStrat/internal/domain/models"
	applogger "CoinStrat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(start string, values []float64) []models.Observation {
	out := make([]models.Observation, len(values))
	d := day(start)
	for i, v := range values {
		out[i] = models.Observation{Date: d.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestEngineEmptyPrice(t *testing.T) {
	e := NewEngine(nil)
	recs, diag := e.Compute(models.SeriesSet{models.SeriesMVRV: dailySeries("2024-01-01", []float64{1})}, day("2024-02-01"))
	assert.Empty(t, recs)
	assert.Equal(t, models.Diagnostics{}, diag)
}

func TestEngineOnlyPrice(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(applogger.NewWriter(&buf), WithWarnLimit(1))
	set := models.SeriesSet{
		models.SeriesBTCUSD: dailySeries("2024-01-01", constant(10, 40_000)),
	}

	recs, diag := e.Compute(set, day("2024-01-15"))

	require.Len(t, recs, 15)
	assert.Equal(t, day("2024-01-01"), recs[0].Date)
	assert.Equal(t, day("2024-01-15"), recs[14].Date)
	assert.Equal(t, 40_000.0, recs[14].BTCUSD, "price is forward-filled to today")

	for _, r := range recs {
		assert.Nil(t, r.MVRV)
		assert.Nil(t, r.USLiq)
		assert.Equal(t, 0, r.ValScore)
		assert.Equal(t, 0, r.LiqScore)
		assert.Equal(t, 1, r.DXYRawScore)
		assert.Equal(t, 0, r.DXYScore)
		assert.Equal(t, 1, r.CycleScore)
		assert.False(t, r.CoreOn)
		assert.False(t, r.MacroOn)
		assert.Equal(t, r.CoreOn, r.AccumOn)
	}
	assert.Equal(t, models.CarryForward{Valuation: 15, Liquidity: 15, DXY: 15, Cycle: 15}, diag.CarryForward)
	assert.Equal(t, 4, strings.Count(buf.String(), "carrying previous score"), "one warning per factor")
}

func TestEngineFullPipeline(t *testing.T) {
	n := 420
	start := "2022-01-03"
	set := models.SeriesSet{
		models.SeriesBTCUSD:    dailySeries(start, constant(n, 30_000)),
		models.SeriesWALCL:     dailySeries(start, constant(n, 9_000_000)),
		models.SeriesWTREGEN:   dailySeries(start, constant(n, 700_000)),
		models.SeriesRRP:       dailySeries(start, constant(n, 400)),
		models.SeriesDXY:       dailySeries(start, constant(n, 100)),
		models.SeriesSahm:      dailySeries(start, constant(n, 0.2)),
		models.SeriesYield:     dailySeries(start, constant(n, 1.0)),
		models.SeriesNewOrders: dailySeries(start, constant(n, 50)),
		models.SeriesMVRV:      dailySeries(start, constant(n, 0.9)),
		models.SeriesLTHSOPR:   dailySeries(start, constant(n, 0.95)),
		models.SeriesLTHNUPL:   dailySeries(start, constant(n, 0.1)),
	}

	recs, diag := NewEngine(nil).Compute(set, day(start).AddDate(0, 0, n-1))
	require.Len(t, recs, n)

	first := recs[0]
	assert.Equal(t, 3, first.ValScore)
	require.NotNil(t, first.USLiq)
	assert.Equal(t, 7_900_000.0, *first.USLiq)
	assert.False(t, first.CoreOn, "DXY persistence is not established yet")

	// DXY effective score turns on at day 29 and valuation is at its extreme
	assert.False(t, recs[28].CoreOn)
	assert.True(t, recs[29].CoreOn)

	last := recs[n-1]
	assert.Equal(t, 1, last.DXYScore)
	assert.Equal(t, 0, last.LiqScore, "flat liquidity is neither growing nor rising")
	assert.Equal(t, 2, last.CycleScore)
	assert.False(t, last.MacroOn)
	assert.True(t, last.CoreOn)
	assert.True(t, last.AccumOn)
	require.NotNil(t, last.DXYPersistence)
	assert.Equal(t, 1.0, *last.DXYPersistence)
	assert.Zero(t, diag.CarryForward.Valuation)
	assert.Equal(t, 20, diag.CarryForward.DXY)
}
