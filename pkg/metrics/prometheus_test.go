package metrics

import (
	"errors"
	"testing"

	"CoinStrat/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWith(prometheus.NewRegistry())

	r.RecordFetch("WALCL", 10, 0.2, nil)
	r.RecordFetch("WALCL", 0, 0.1, errors.New("boom"))
	r.RecordFetch("MVRV", 0, 0.1, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("WALCL", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("WALCL", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("MVRV", "empty")))

	r.RecordSignals(models.DailyRecord{CoreOn: true, ValScore: -1, PriceRegimeOn: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalState.WithLabelValues("core")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.signalState.WithLabelValues("macro")))
	assert.Equal(t, -1.0, testutil.ToFloat64(r.factorScore.WithLabelValues("valuation")))

	r.RecordCarryForward(models.CarryForward{DXY: 4})
	assert.Equal(t, 4.0, testutil.ToFloat64(r.carryForward.WithLabelValues("dxy")))

	r.RecordBacktest("CORE DCA", 0.5, 0.3)
	assert.Equal(t, 0.5, testutil.ToFloat64(r.backtestReturn.WithLabelValues("CORE DCA")))
}
