package models

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrNoData is returned when the anchor price series is empty and nothing can be computed.
	ErrNoData = errors.New("no data")
	// ErrUnknownSeries is returned for a series id outside the supported set.
	ErrUnknownSeries = errors.New("unknown series")
)

// Observation is one dated value of a raw input series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Valid reports whether the observation carries a finite value.
func (o Observation) Valid() bool {
	return !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0)
}

// Float converts v into a nullable value, nil when v is not finite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Value dereferences p, returning NaN for nil.
func Value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
