package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

type chartResponse struct {
	Values []struct {
		X int64   `json:"x"`
		Y float64 `json:"y"`
	} `json:"values"`
}

// Blockchain fetches MVRV from the blockchain.info charts API.
type Blockchain struct {
	*httpSource
}

func NewBlockchain(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, l *applogger.Logger) *Blockchain {
	return &Blockchain{
		httpSource: newHTTPSource(string(models.ProviderBlockchain), cfg.Sources.Blockchain.BaseURL, client, limiter, cfg.Sources.Breaker, l),
	}
}

func (b *Blockchain) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	if id != models.SeriesMVRV {
		return nil, fmt.Errorf("blockchain %s: %w", id, models.ErrUnknownSeries)
	}

	var resp chartResponse
	err := b.getJSON(ctx, strings.TrimRight(b.baseURL, "/")+"/charts/"+id.RemoteName(), map[string]string{
		"timespan":          "all",
		"sampled":           "true",
		"metadata":          "false",
		"daysAverageString": "1d",
		"format":            "json",
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.Observation, 0, len(resp.Values))
	for _, v := range resp.Values {
		obs := models.Observation{Date: util.Day(time.Unix(v.X, 0)), Value: v.Y}
		if obs.Valid() {
			out = append(out, obs)
		}
	}
	return out, nil
}
