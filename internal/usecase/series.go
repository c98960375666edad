package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
)

// SeriesUseCase serves the raw observations of one input.
type SeriesUseCase struct {
	source domrepo.SeriesSource
}

func NewSeriesUseCase(source domrepo.SeriesSource) *SeriesUseCase {
	return &SeriesUseCase{source: source}
}

type GetSeriesParams struct {
	ID   string
	From time.Time
	To   time.Time
}

type GetSeriesResult struct {
	ID           models.SeriesID      `json:"id"`
	Provider     models.Provider      `json:"provider"`
	Count        int                  `json:"count"`
	Observations []models.Observation `json:"observations"`
}

func (uc *SeriesUseCase) GetSeries(ctx context.Context, p GetSeriesParams) (*GetSeriesResult, error) {
	id, err := models.ParseSeriesID(p.ID)
	if err != nil {
		return nil, err
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, ErrInvalidRange
	}
	obs, err := uc.source.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	out := make([]models.Observation, 0, len(obs))
	for _, o := range obs {
		if !p.From.IsZero() && o.Date.Before(p.From) {
			continue
		}
		if !p.To.IsZero() && o.Date.After(p.To) {
			continue
		}
		out = append(out, o)
	}
	provider, _ := models.ProviderOf(id)
	return &GetSeriesResult{ID: id, Provider: provider, Count: len(out), Observations: out}, nil
}
