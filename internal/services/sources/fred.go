package sources

import (
	"context"
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

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FRED fetches macro series from the St. Louis Fed observations endpoint.
type FRED struct {
	*httpSource
	apiKey string
}

// NewFRED builds the FRED client.
func NewFRED(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, l *applogger.Logger) *FRED {
	return &FRED{
		httpSource: newHTTPSource(string(models.ProviderFRED), cfg.Sources.FRED.BaseURL, client, limiter, cfg.Sources.Breaker, l),
		apiKey:     cfg.Sources.FRED.APIKey,
	}
}

func (f *FRED) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	if p, ok := models.ProviderOf(id); !ok || p != models.ProviderFRED {
		return nil, fmt.Errorf("fred %s: %w", id, models.ErrUnknownSeries)
	}
	if f.apiKey == "" {
		return nil, fmt.Errorf("fred %s: api key not configured", id)
	}

	var resp fredResponse
	err := f.getJSON(ctx, strings.TrimRight(f.baseURL, "/")+"/series/observations", map[string]string{
		"series_id": id.RemoteName(),
		"api_key":   f.apiKey,
		"file_type": "json",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return parseFRED(resp), nil
}

// parseFRED drops "." placeholders and unparsable rows.
func parseFRED(resp fredResponse) []models.Observation {
	out := make([]models.Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse(util.DayLayout, o.Date)
		if err != nil {
			continue
		}
		obs := models.Observation{Date: d, Value: v}
		if obs.Valid() {
			out = append(out, obs)
		}
	}
	return out
}
