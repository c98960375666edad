package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/domain/repository"
	"CoinStrat/pkg/cache"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"

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

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Sources.FRED.BaseURL = baseURL
	cfg.Sources.FRED.APIKey = "key"
	cfg.Sources.Binance.BaseURL = baseURL
	cfg.Sources.Binance.PageDelay = 0
	cfg.Sources.Blockchain.BaseURL = baseURL
	cfg.Sources.BGeometrics.BaseURL = baseURL
	cfg.Sources.Limiter.RPS = 0
	return cfg
}

func TestFREDDropsPlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		assert.Equal(t, "WALCL", r.URL.Query().Get("series_id"))
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("file_type"))
		fmt.Fprint(w, `{"observations":[
			{"date":"2024-01-03","value":"7700000"},
			{"date":"2024-01-10","value":"."},
			{"date":"2024-01-17","value":"7650000.5"}]}`)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	f := NewFRED(cfg, NewClient(cfg), nil, nil)

	obs, err := f.Fetch(context.Background(), models.SeriesWALCL)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, day("2024-01-03"), obs[0].Date)
	assert.Equal(t, 7650000.5, obs[1].Value)
}

func TestFREDRejectsForeignSeriesAndMissingKey(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	f := NewFRED(cfg, NewClient(cfg), nil, nil)

	_, err := f.Fetch(context.Background(), models.SeriesMVRV)
	assert.ErrorIs(t, err, models.ErrUnknownSeries)

	cfg.Sources.FRED.APIKey = ""
	f = NewFRED(cfg, NewClient(cfg), nil, nil)
	_, err = f.Fetch(context.Background(), models.SeriesWALCL)
	assert.Error(t, err)
}

// klineServer serves daily candles for [from, from+n) paging by limit.
func klineServer(t *testing.T, from time.Time, n int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))

		w.Write([]byte("["))
		written := 0
		for i := 0; i < n && written < limit; i++ {
			open := from.AddDate(0, 0, i).UnixMilli()
			if open < start || open >= end {
				continue
			}
			if written > 0 {
				w.Write([]byte(","))
			}
			fmt.Fprintf(w, `[%d,"1","2","0.5","%d.5","10",%d,"0",1,"0","0","0"]`, open, 100+i, open+86399999)
			written++
		}
		w.Write([]byte("]"))
	}))
}

func TestBinancePagesUntilEnd(t *testing.T) {
	from := day("2024-01-01")
	var calls int32
	srv := klineServer(t, from, 25, &calls)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Sources.Binance.PageLimit = 10
	b := NewBinance(cfg, NewClient(cfg), nil, nil)

	obs, err := b.DailyCloses(context.Background(), from, from.AddDate(0, 0, 25))
	require.NoError(t, err)
	require.Len(t, obs, 25)
	assert.Equal(t, from, obs[0].Date)
	assert.Equal(t, 100.5, obs[0].Value)
	assert.Equal(t, 124.5, obs[24].Value)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "three full pages and one empty terminator")
}

type fakeArchive struct {
	rows     []models.Observation
	upserted []models.Observation
	err      error
}

func (f *fakeArchive) Init(context.Context) error { return nil }
func (f *fakeArchive) Range(_ context.Context, _ string, from, to time.Time) ([]models.Observation, error) {
	return f.rows, f.err
}
func (f *fakeArchive) LastDate(context.Context, string) (time.Time, bool, error) {
	if f.err != nil || len(f.rows) == 0 {
		return time.Time{}, false, f.err
	}
	return f.rows[len(f.rows)-1].Date, true, nil
}
func (f *fakeArchive) Upsert(_ context.Context, _ string, obs []models.Observation) error {
	f.upserted = append(f.upserted, obs...)
	return nil
}
func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { return nil }

func TestBTCMergesArchiveAndTail(t *testing.T) {
	from := day("2024-01-01")
	var calls int32
	srv := klineServer(t, from, 10, &calls)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	archive := &fakeArchive{rows: []models.Observation{
		{Date: day("2023-12-31"), Value: 42},
		{Date: day("2024-01-05"), Value: 1},
	}}
	now := day("2024-01-10").Add(12 * time.Hour)
	btc := NewBTC(NewBinance(cfg, NewClient(cfg), nil, nil), day("2017-08-17"), nil,
		WithArchive(archive), WithClock(func() time.Time { return now }))

	obs, err := btc.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)

	// archive up to 01-05, tail from 01-05 through 01-10; the tail wins on 01-05
	require.Len(t, obs, 7)
	assert.Equal(t, 42.0, obs[0].Value)
	assert.Equal(t, day("2024-01-05"), obs[1].Date)
	assert.Equal(t, 104.5, obs[1].Value)
	assert.Equal(t, 105.5, obs[2].Value)
	assert.Equal(t, day("2024-01-10"), obs[6].Date)

	// 01-05..01-09 are closed; today's open candle stays out of the archive
	require.Len(t, archive.upserted, 5)
	for _, o := range archive.upserted {
		assert.True(t, o.Date.Before(day("2024-01-10")), "archived open candle %s", o.Date)
	}
}

// dayArchive is an in-memory PriceArchive keyed by day; Upsert replaces like ReplacingMergeTree.
type dayArchive struct {
	mu   sync.Mutex
	rows map[time.Time]float64
}

func (a *dayArchive) Init(context.Context) error { return nil }
func (a *dayArchive) Range(_ context.Context, _ string, from, to time.Time) ([]models.Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Observation, 0, len(a.rows))
	for d, v := range a.rows {
		if !d.Before(from) && !d.After(to) {
			out = append(out, models.Observation{Date: d, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
func (a *dayArchive) LastDate(context.Context, string) (time.Time, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var last time.Time
	for d := range a.rows {
		if d.After(last) {
			last = d
		}
	}
	return last, !last.IsZero(), nil
}
func (a *dayArchive) Upsert(_ context.Context, _ string, obs []models.Observation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range obs {
		a.rows[o.Date] = o.Value
	}
	return nil
}
func (a *dayArchive) Health(context.Context) error { return nil }
func (a *dayArchive) Close() error                 { return nil }

func (a *dayArchive) get(d time.Time) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.rows[d]
	return v, ok
}

// closesServer serves daily klines whose closes the test can change between fetches.
func closesServer(t *testing.T, mu *sync.Mutex, closes map[time.Time]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)

		mu.Lock()
		days := make([]time.Time, 0, len(closes))
		for d := range closes {
			if ms := d.UnixMilli(); ms >= start && ms < end {
				days = append(days, d)
			}
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		rows := make([]string, 0, len(days))
		for _, d := range days {
			open := d.UnixMilli()
			rows = append(rows, fmt.Sprintf(`[%d,"1","2","0.5","%g","10",%d,"0",1,"0","0","0"]`, open, closes[d], open+86399999))
		}
		mu.Unlock()
		w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
	}))
}

func TestBTCArchivesOnlyClosedCandles(t *testing.T) {
	var mu sync.Mutex
	closes := map[time.Time]float64{day("2024-01-01"): 111}
	srv := closesServer(t, &mu, closes)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	archive := &dayArchive{rows: map[time.Time]float64{}}
	now := day("2024-01-01").Add(6 * time.Hour)
	btc := NewBTC(NewBinance(cfg, NewClient(cfg), nil, nil), day("2024-01-01"), nil,
		WithArchive(archive), WithClock(func() time.Time { return now }))

	obs, err := btc.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 111.0, obs[0].Value, "intraday close is served")
	_, stored := archive.get(day("2024-01-01"))
	assert.False(t, stored, "open candle must not be archived")

	// next day: 01-01 has its final close
	mu.Lock()
	closes[day("2024-01-01")] = 200
	closes[day("2024-01-02")] = 222
	mu.Unlock()
	now = day("2024-01-02").Add(12 * time.Hour)

	obs, err = btc.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 200.0, obs[0].Value)
	v, stored := archive.get(day("2024-01-01"))
	require.True(t, stored)
	assert.Equal(t, 200.0, v)
	_, stored = archive.get(day("2024-01-02"))
	assert.False(t, stored)
}

func TestBTCRefreshesLastArchivedDay(t *testing.T) {
	var mu sync.Mutex
	closes := map[time.Time]float64{day("2024-01-01"): 200, day("2024-01-02"): 222}
	srv := closesServer(t, &mu, closes)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	// a close stored while its candle was still open
	archive := &dayArchive{rows: map[time.Time]float64{day("2024-01-01"): 111}}
	now := day("2024-01-02").Add(12 * time.Hour)
	btc := NewBTC(NewBinance(cfg, NewClient(cfg), nil, nil), day("2024-01-01"), nil,
		WithArchive(archive), WithClock(func() time.Time { return now }))

	obs, err := btc.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 200.0, obs[0].Value)
	v, _ := archive.get(day("2024-01-01"))
	assert.Equal(t, 200.0, v)
}

func TestBTCFallsBackToFullHistoryWhenArchiveFails(t *testing.T) {
	from := day("2024-01-01")
	var calls int32
	srv := klineServer(t, from, 3, &calls)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	archive := &fakeArchive{err: errors.New("connection refused")}
	now := day("2024-01-03").Add(time.Hour)
	btc := NewBTC(NewBinance(cfg, NewClient(cfg), nil, nil), from, nil,
		WithArchive(archive), WithClock(func() time.Time { return now }))

	obs, err := btc.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestMergeUniqueTailWins(t *testing.T) {
	a := []models.Observation{{Date: day("2024-01-02"), Value: 2}, {Date: day("2024-01-01"), Value: 1}}
	b := []models.Observation{{Date: day("2024-01-02"), Value: 20}, {Date: day("2024-01-03"), Value: 30}}

	got := MergeUnique(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{1, 20, 30}, []float64{got[0].Value, got[1].Value, got[2].Value})
}

func TestBlockchainMVRV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charts/mvrv", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("timespan"))
		fmt.Fprintf(w, `{"values":[{"x":%d,"y":1.5},{"x":%d,"y":2.25}]}`,
			day("2024-01-01").Unix(), day("2024-01-02").Unix()+3600)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	obs, err := NewBlockchain(cfg, NewClient(cfg), nil, nil).Fetch(context.Background(), models.SeriesMVRV)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, day("2024-01-02"), obs[1].Date)
	assert.Equal(t, 2.25, obs[1].Value)
}

func TestBGeometricsAllowListAndRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/lth_sopr.json", r.URL.Path)
		fmt.Fprintf(w, `[[%d,1.1],[%d,null],[%d,0.9]]`,
			day("2024-01-01").UnixMilli(), day("2024-01-02").UnixMilli(), day("2024-01-03").UnixMilli())
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	bg := NewBGeometrics(cfg, NewClient(cfg), nil, nil)

	obs, err := bg.Fetch(context.Background(), models.SeriesLTHSOPR)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 0.9, obs[1].Value)

	_, err = bg.Fetch(context.Background(), models.SeriesWALCL)
	assert.ErrorIs(t, err, models.ErrUnknownSeries)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Sources.Breaker.FailureThreshold = 2
	cfg.Sources.Breaker.Timeout = time.Minute
	chain := NewBlockchain(cfg, NewClient(cfg), nil, nil)

	for i := 0; i < 2; i++ {
		_, err := chain.Fetch(context.Background(), models.SeriesMVRV)
		var se *xhttp.StatusError
		require.True(t, errors.As(err, &se))
	}
	_, err := chain.Fetch(context.Background(), models.SeriesMVRV)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

type stubSource struct {
	calls int
	obs   []models.Observation
	err   error
}

func (s *stubSource) Fetch(context.Context, models.SeriesID) ([]models.Observation, error) {
	s.calls++
	return s.obs, s.err
}

func TestRouterDispatch(t *testing.T) {
	fred := &stubSource{obs: []models.Observation{{Date: day("2024-01-01"), Value: 1}}}
	r := &Router{byProvider: map[models.Provider]repository.SeriesSource{models.ProviderFRED: fred}}

	obs, err := r.Fetch(context.Background(), models.SeriesDXY)
	require.NoError(t, err)
	assert.Len(t, obs, 1)

	_, err = r.Fetch(context.Background(), models.SeriesID("SPX"))
	assert.ErrorIs(t, err, models.ErrUnknownSeries)

	_, err = r.Fetch(context.Background(), models.SeriesMVRV)
	assert.Error(t, err)
}

func TestCachedSkipsEmptyResults(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	src := &stubSource{}
	c := NewCached(src, mc, time.Hour, nil)

	_, err := c.Fetch(context.Background(), models.SeriesWALCL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), models.SeriesWALCL)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "empty results are not cached")

	src.obs = []models.Observation{{Date: day("2024-01-01"), Value: 7}}
	_, _ = c.Fetch(context.Background(), models.SeriesWALCL)
	obs, err := c.Fetch(context.Background(), models.SeriesWALCL)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
	require.Len(t, obs, 1)
	assert.True(t, obs[0].Date.Equal(day("2024-01-01")))
}

type fixedLive struct {
	price float64
	at    time.Time
}

func (f fixedLive) Latest() (float64, time.Time, bool) { return f.price, f.at, true }

func TestLiveOverlayReplacesToday(t *testing.T) {
	today := day("2024-01-03")
	src := &stubSource{obs: []models.Observation{
		{Date: day("2024-01-02"), Value: 100},
		{Date: today, Value: 101},
	}}
	o := NewLiveOverlay(src, fixedLive{price: 105, at: today.Add(15 * time.Hour)})
	o.now = func() time.Time { return today.Add(16 * time.Hour) }

	obs, err := o.Fetch(context.Background(), models.SeriesBTCUSD)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 105.0, obs[1].Value)

	// a stale tick from yesterday is ignored
	o.live = fixedLive{price: 99, at: today.Add(-time.Hour)}
	obs, _ = o.Fetch(context.Background(), models.SeriesBTCUSD)
	assert.Equal(t, 101.0, obs[1].Value)

	// other series pass through
	obs, _ = o.Fetch(context.Background(), models.SeriesWALCL)
	assert.Equal(t, 101.0, obs[1].Value)
}
