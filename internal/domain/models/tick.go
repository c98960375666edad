package models

import "time"

// PriceTick is one live kline update from the exchange stream.
type PriceTick struct {
	Symbol string
	Price  float64
	Time   time.Time
	Closed bool // true when the daily candle has closed
}

// SeriesSet maps every fetched input to its observations.
type SeriesSet map[SeriesID][]Observation
