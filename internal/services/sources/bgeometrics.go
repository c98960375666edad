package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

// allowedFiles is the closed set of BGeometrics chart files the service may request.
var allowedFiles = map[string]struct{}{
	"lth_sopr": {},
	"lth_nupl": {},
}

// BGeometrics fetches long-term-holder metrics from published chart files.
type BGeometrics struct {
	*httpSource
}

func NewBGeometrics(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, l *applogger.Logger) *BGeometrics {
	return &BGeometrics{
		httpSource: newHTTPSource(string(models.ProviderBGeometrics), cfg.Sources.BGeometrics.BaseURL, client, limiter, cfg.Sources.Breaker, l),
	}
}

func (b *BGeometrics) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	file := id.RemoteName()
	if _, ok := allowedFiles[file]; !ok {
		return nil, fmt.Errorf("bgeometrics %s: %w", id, models.ErrUnknownSeries)
	}

	var rows [][]json.RawMessage
	if err := b.getJSON(ctx, strings.TrimRight(b.baseURL, "/")+"/files/"+file+".json", nil, &rows); err != nil {
		return nil, err
	}
	return parseBGeometrics(rows), nil
}

// parseBGeometrics reads [ms, value] rows; null or malformed values are skipped.
func parseBGeometrics(rows [][]json.RawMessage) []models.Observation {
	out := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		var ms float64
		var v *float64
		if json.Unmarshal(row[0], &ms) != nil || json.Unmarshal(row[1], &v) != nil || v == nil {
			continue
		}
		obs := models.Observation{Date: util.FromUnixMillis(int64(ms)), Value: *v}
		if obs.Valid() {
			out = append(out, obs)
		}
	}
	return out
}
