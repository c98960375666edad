package models

import (
	"fmt"

	"CoinStrat/pkg/util"
)

// Requests for the HTTP and job endpoints. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	From string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Days int    `query:"days" json:"days" default:"0" validate:"gte=0,lte=10000"`
}

type BacktestRequest struct {
	ID              string  `json:"id,omitempty" validate:"omitempty,max=64"`
	StartDate       string  `json:"start_date" default:"2018-01-01" validate:"required,datetime=2006-01-02"`
	DCAAmount       float64 `json:"dca_amount" default:"100" validate:"gt=0,lte=1000000"`
	Frequency       string  `json:"frequency" default:"weekly" validate:"oneof=daily weekly monthly"`
	OffSignalMode   string  `json:"off_signal_mode" default:"pause" validate:"oneof=pause sell_matching sell_all"`
	MacroAccel      bool    `json:"macro_accel"`
	AccelMultiplier float64 `json:"accel_multiplier" default:"3" validate:"gte=1,lte=10"`
}

// BacktestCompareRequest runs several backtests over one snapshot.
type BacktestCompareRequest struct {
	Configs []BacktestRequest `json:"configs" validate:"required,min=1,max=10,dive"`
}

type SeriesRequest struct {
	ID   string `param:"id" validate:"required"`
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// ToConfig converts a validated request into a simulator configuration.
func (r BacktestRequest) ToConfig() (BacktestConfig, error) {
	start, ok := util.ParseDay(r.StartDate)
	if !ok {
		return BacktestConfig{}, fmt.Errorf("invalid start_date %q", r.StartDate)
	}
	return BacktestConfig{
		StartDate:       start,
		DCAAmount:       r.DCAAmount,
		Frequency:       Frequency(r.Frequency),
		OffSignalMode:   OffSignalMode(r.OffSignalMode),
		MacroAccel:      r.MacroAccel,
		AccelMultiplier: r.AccelMultiplier,
	}, nil
}

// ToConfigs converts every entry of a validated compare request.
func (r BacktestCompareRequest) ToConfigs() ([]BacktestConfig, error) {
	cfgs := make([]BacktestConfig, 0, len(r.Configs))
	for i, c := range r.Configs {
		cfg, err := c.ToConfig()
		if err != nil {
			return nil, fmt.Errorf("configs[%d]: %w", i, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}
