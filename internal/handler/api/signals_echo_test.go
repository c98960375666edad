package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"
	icache "CoinStrat/internal/service/cache"
	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/internal/services/backtest"
	"CoinStrat/internal/usecase"
	xhttp "CoinStrat/pkg/http"
	"CoinStrat/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

type stubSource struct{ calls int32 }

func (s *stubSource) Fetch(_ context.Context, id models.SeriesID) ([]models.Observation, error) {
	atomic.AddInt32(&s.calls, 1)
	return []models.Observation{
		{Date: day("2024-01-01"), Value: 1},
		{Date: day("2024-01-05"), Value: 2},
	}, nil
}

type stubEngine struct{}

func (stubEngine) Compute(set models.SeriesSet, today time.Time) ([]models.DailyRecord, models.Diagnostics) {
	var out []models.DailyRecord
	for d := day("2024-01-01"); !d.After(today); d = d.AddDate(0, 0, 1) {
		out = append(out, models.DailyRecord{Date: d, BTCUSD: 100, CoreOn: true})
	}
	return out, models.Diagnostics{}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, opts ...HandlerOption) (*echo.Echo, *stubSource) {
	t.Helper()
	src := &stubSource{}
	clock := func() time.Time { return day("2024-01-10") }
	sig := usecase.NewSignalsUseCase(src, stubEngine{}, nopPublisher{}, metrics.Nop{}, nil, usecase.WithSignalsClock(clock))
	bt := usecase.NewBacktestUseCase(sig, backtest.NewSimulator(nil), nopPublisher{}, metrics.Nop{}, nil)
	h := NewSignalsEchoHandler(nil, sig, bt, usecase.NewSeriesUseCase(src), opts...)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, src
}

type nopPublisher struct{}

func (nopPublisher) PublishRecord(context.Context, models.DailyRecord) error     { return nil }
func (nopPublisher) PublishReport(context.Context, *models.BacktestReport) error { return nil }
func (nopPublisher) Close() error                                                { return nil }

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestSignalsRange(t *testing.T) {
	e, _ := newTestServer(t)
	rec, env := do(e, http.MethodGet, "/api/signals?from=2024-01-02&to=2024-01-04", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res usecase.SignalsResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 3, res.Count)

	rec, env = do(e, http.MethodGet, "/api/signals?from=2024-13-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, env.Status)

	rec, env = do(e, http.MethodGet, "/api/signals?from=2024-01-05&to=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorCode(t, env, xhttp.CodeInvalidRange)
}

func TestLatest(t *testing.T) {
	e, _ := newTestServer(t)
	rec, env := do(e, http.MethodGet, "/api/signals/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var r models.DailyRecord
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, day("2024-01-10"), r.Date)
	assert.True(t, r.CoreOn)
}

func TestBacktestValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(e, http.MethodPost, "/api/backtest", `{"start_date":"2024-01-01","frequency":"daily"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var rep models.BacktestReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 100.0, rep.Config.DCAAmount)
	assert.NotEmpty(t, rep.Results)

	rec, env = do(e, http.MethodPost, "/api/backtest", `{"start_date":"2024-01-01","frequency":"hourly","dca_amount":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verrs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &verrs))
	assert.Len(t, verrs, 2)

	rec, _ = do(e, http.MethodPost, "/api/backtest", `{"start_date":"2031-01-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareBacktests(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{"configs":[{"start_date":"2024-01-01"},{"start_date":"2024-01-01","frequency":"daily","dca_amount":50},{"start_date":"2031-01-01"}]}`
	rec, env := do(e, http.MethodPost, "/api/backtest/compare", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var reps []*models.BacktestReport
	require.NoError(t, json.Unmarshal(env.Data, &reps))
	require.Len(t, reps, 3)
	require.NotNil(t, reps[0])
	require.NotNil(t, reps[1])
	assert.Equal(t, 100.0, reps[0].Config.DCAAmount)
	assert.Equal(t, models.FrequencyWeekly, reps[0].Config.Frequency)
	assert.Equal(t, 50.0, reps[1].Config.DCAAmount)
	assert.Nil(t, reps[2])

	rec, _ = do(e, http.MethodPost, "/api/backtest/compare", `{"configs":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, http.MethodPost, "/api/backtest/compare", `{"configs":[{"start_date":"2024-01-01","frequency":"hourly"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func assertErrorCode(t *testing.T, env envelope, code string) {
	t.Helper()
	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, code, errs[0].Code)
}

func TestSubmitBacktestWithoutJobs(t *testing.T) {
	e, _ := newTestServer(t)
	rec, env := do(e, http.MethodPost, "/api/backtest/jobs", `{"start_date":"2024-01-01"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assertErrorCode(t, env, xhttp.CodeJobsDisabled)
}

func TestSeriesEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(e, http.MethodGet, "/api/series/lth_sopr?from=2024-01-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get(echo.HeaderCacheControl))
	var res usecase.GetSeriesResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.SeriesLTHSOPR, res.ID)
	assert.Equal(t, 1, res.Count)

	rec, env = do(e, http.MethodGet, "/api/series/sth_sopr", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorCode(t, env, xhttp.CodeUnknownSeries)
	assert.Empty(t, rec.Header().Get(echo.HeaderCacheControl))
}

func TestResponseCacheServesRepeatedGets(t *testing.T) {
	e, src := newTestServer(t, WithResponseCache(icache.NewTTLCache(), time.Minute))

	rec, _ := do(e, http.MethodGet, "/api/series/walcl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := rec.Body.String()
	calls := atomic.LoadInt32(&src.calls)

	rec, _ = do(e, http.MethodGet, "/api/series/walcl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, rec.Body.String())
	assert.Equal(t, calls, atomic.LoadInt32(&src.calls))
}

func TestRateLimit(t *testing.T) {
	e, _ := newTestServer(t, WithRateLimiter(ratelimit.New(0.001, 1)))
	rec, _ := do(e, http.MethodGet, "/api/signals/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(e, http.MethodGet, "/api/signals/latest", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
