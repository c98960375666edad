package api

import (
	"errors"
	"strconv"
	"time"

	"CoinStrat/internal/domain/models"
	icache "CoinStrat/internal/service/cache"
	"CoinStrat/internal/service/metrics"
	"CoinStrat/internal/usecase"
	xhttp "CoinStrat/pkg/http"
	"CoinStrat/pkg/http/middleware"
	xlogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler serves the signal table, backtests and raw series.
type SignalsEchoHandler struct {
	logger   *xlogger.Logger
	signals  *usecase.SignalsUseCase
	backtest *usecase.BacktestUseCase
	series   *usecase.SeriesUseCase
	jobs     *usecase.JobDispatcher
	limiter  middleware.KeyedLimiter
	resp     *responseCache
}

// HandlerOption configures SignalsEchoHandler.
type HandlerOption func(*SignalsEchoHandler)

// WithResponseCache caches GET envelopes in c for ttl.
func WithResponseCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *SignalsEchoHandler) {
		h.resp.cache = c
		h.resp.ttl = ttl
	}
}

// WithRateLimiter limits /api requests per client IP.
func WithRateLimiter(l middleware.KeyedLimiter) HandlerOption {
	return func(h *SignalsEchoHandler) { h.limiter = l }
}

// WithJobs enables asynchronous backtest submission.
func WithJobs(d *usecase.JobDispatcher) HandlerOption {
	return func(h *SignalsEchoHandler) { h.jobs = d }
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	signals *usecase.SignalsUseCase,
	backtest *usecase.BacktestUseCase,
	series *usecase.SeriesUseCase,
	opts ...HandlerOption,
) *SignalsEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &SignalsEchoHandler{
		logger:   logger,
		signals:  signals,
		backtest: backtest,
		series:   series,
		resp:     &responseCache{l: logger},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}
	g.GET("/signals", h.Signals)
	g.GET("/signals/latest", h.Latest)
	g.POST("/backtest", h.Backtest)
	g.POST("/backtest/compare", h.CompareBacktests)
	g.POST("/backtest/jobs", h.SubmitBacktest)
	g.GET("/series/:id", h.Series)
}

func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, _ := util.ParseDay(req.From)
	to, _ := util.ParseDay(req.To)

	key := "signals:" + req.From + ":" + req.To + ":" + strconv.Itoa(req.Days)
	return h.resp.serve(c, "signals", key, "", func() (interface{}, error) {
		return h.signals.GetSignals(c.Request().Context(), usecase.GetSignalsParams{From: from, To: to, Days: req.Days})
	})
}

func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	return h.resp.serve(c, "signals_latest", "signals:latest", "", func() (interface{}, error) {
		return h.signals.Latest(c.Request().Context())
	})
}

func (h *SignalsEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("backtest").Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rep, err := h.backtest.Run(c.Request().Context(), *req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("backtest").Inc()
		return errorResponse(c, h.logger, "backtest", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

// CompareBacktests runs every config over the same snapshot.
// A config whose window holds no records yields a null entry.
func (h *SignalsEchoHandler) CompareBacktests(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("backtest_compare").Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestCompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	cfgs, err := req.ToConfigs()
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	reps, err := h.backtest.Compare(c.Request().Context(), cfgs)
	if err != nil {
		metrics.APIErrors.WithLabelValues("backtest_compare").Inc()
		return errorResponse(c, h.logger, "backtest_compare", err)
	}
	return xhttp.SuccessResponse(c, reps)
}

// SubmitBacktest queues a request on the job backend; the report is published to the results topic.
func (h *SignalsEchoHandler) SubmitBacktest(c echo.Context) error {
	if !h.jobs.Enabled() {
		return xhttp.AppErrorResponse(c, xhttp.JobsDisabledError())
	}
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id, err := h.jobs.Submit(c.Request().Context(), *req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("backtest_jobs").Inc()
		return errorResponse(c, h.logger, "backtest_jobs", err)
	}
	return xhttp.AcceptedResponse(c, map[string]string{"id": id})
}

func (h *SignalsEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, _ := util.ParseDay(req.From)
	to, _ := util.ParseDay(req.To)

	key := "series:" + req.ID + ":" + req.From + ":" + req.To
	return h.resp.serve(c, "series", key, "public, max-age=3600", func() (interface{}, error) {
		return h.series.GetSeries(c.Request().Context(), usecase.GetSeriesParams{ID: req.ID, From: from, To: to})
	})
}

// errorResponse maps use case errors onto the envelope.
func errorResponse(c echo.Context, l *xlogger.Logger, endpoint string, err error) error {
	switch {
	case errors.Is(err, models.ErrUnknownSeries):
		return xhttp.AppErrorResponse(c, xhttp.UnknownSeriesError(c.Param("id")).WithError(err))
	case errors.Is(err, models.ErrNoData):
		return xhttp.AppErrorResponse(c, xhttp.NoDataError("no data for the requested window").WithError(err))
	case errors.Is(err, usecase.ErrInvalidRange):
		return xhttp.AppErrorResponse(c, xhttp.InvalidRangeError(c.QueryParam("from"), c.QueryParam("to")).WithError(err))
	}
	l.Error("api usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
