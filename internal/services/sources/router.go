package sources

import (
	"context"
	"fmt"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/domain/repository"
)

// Router dispatches each series id to the provider that publishes it.
type Router struct {
	byProvider map[models.Provider]repository.SeriesSource
}

func NewRouter(fred *FRED, btc *BTC, chain *Blockchain, bgeo *BGeometrics) *Router {
	return &Router{byProvider: map[models.Provider]repository.SeriesSource{
		models.ProviderFRED:        fred,
		models.ProviderBinance:     btc,
		models.ProviderBlockchain:  chain,
		models.ProviderBGeometrics: bgeo,
	}}
}

func (r *Router) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	p, ok := models.ProviderOf(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, models.ErrUnknownSeries)
	}
	src, ok := r.byProvider[p]
	if !ok || src == nil {
		return nil, fmt.Errorf("%s: no source for provider %s", id, p)
	}
	return src.Fetch(ctx, id)
}
