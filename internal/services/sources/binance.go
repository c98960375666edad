package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

// Binance pages daily klines from the spot REST API.
type Binance struct {
	*httpSource
	symbol    string
	pageLimit int
	pageDelay time.Duration
}

// NewBinance builds the klines client.
func NewBinance(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, l *applogger.Logger) *Binance {
	bc := cfg.Sources.Binance
	return &Binance{
		httpSource: newHTTPSource(string(models.ProviderBinance), bc.BaseURL, client, limiter, cfg.Sources.Breaker, l),
		symbol:     bc.Symbol,
		pageLimit:  bc.PageLimit,
		pageDelay:  bc.PageDelay,
	}
}

// Symbol returns the traded pair the client pages.
func (b *Binance) Symbol() string { return b.symbol }

// DailyCloses returns one observation per daily candle opened in [start, end), keyed by open day.
func (b *Binance) DailyCloses(ctx context.Context, start, end time.Time) ([]models.Observation, error) {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	out := make([]models.Observation, 0)

	for startMs < endMs {
		var rows [][]json.RawMessage
		err := b.getJSON(ctx, strings.TrimRight(b.baseURL, "/")+"/api/v3/klines", map[string]string{
			"symbol":    b.symbol,
			"interval":  "1d",
			"limit":     strconv.Itoa(b.pageLimit),
			"startTime": strconv.FormatInt(startMs, 10),
			"endTime":   strconv.FormatInt(endMs, 10),
		}, &rows)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		var lastOpen int64
		for _, row := range rows {
			openMs, obs, err := parseKline(row)
			if err != nil {
				return nil, fmt.Errorf("binance: %w", err)
			}
			lastOpen = openMs
			if obs.Valid() {
				out = append(out, obs)
			}
		}

		startMs = lastOpen + 1
		if startMs < endMs && b.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.pageDelay):
			}
		}
	}
	return out, nil
}

// parseKline reads open time (index 0) and close (index 4, a decimal string).
func parseKline(row []json.RawMessage) (int64, models.Observation, error) {
	if len(row) < 5 {
		return 0, models.Observation{}, fmt.Errorf("short kline row: %d fields", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return 0, models.Observation{}, fmt.Errorf("kline open time: %w", err)
	}
	var closeStr string
	if err := json.Unmarshal(row[4], &closeStr); err != nil {
		return 0, models.Observation{}, fmt.Errorf("kline close: %w", err)
	}
	v, err := strconv.ParseFloat(closeStr, 64)
	if err != nil {
		return 0, models.Observation{}, fmt.Errorf("kline close %q: %w", closeStr, err)
	}
	return openMs, models.Observation{Date: util.FromUnixMillis(openMs), Value: v}, nil
}
