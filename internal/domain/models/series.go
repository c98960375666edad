package models

import "strings"

// SeriesID names one raw input of the signal engine.
type SeriesID string

const (
	SeriesBTCUSD    SeriesID = "BTCUSD"
	SeriesWALCL     SeriesID = "WALCL"
	SeriesWTREGEN   SeriesID = "WTREGEN"
	SeriesRRP       SeriesID = "RRPONTSYD"
	SeriesDXY       SeriesID = "DTWEXBGS"
	SeriesSahm      SeriesID = "SAHMREALTIME"
	SeriesYield     SeriesID = "T10Y3M"
	SeriesNewOrders SeriesID = "AMTMNO"
	SeriesMVRV      SeriesID = "MVRV"
	SeriesLTHSOPR   SeriesID = "LTH_SOPR"
	SeriesLTHNUPL   SeriesID = "LTH_NUPL"
)

// Provider identifies the upstream that publishes a series.
type Provider string

const (
	ProviderFRED        Provider = "fred"
	ProviderBinance     Provider = "binance"
	ProviderBlockchain  Provider = "blockchain"
	ProviderBGeometrics Provider = "bgeometrics"
)

var seriesProviders = map[SeriesID]Provider{
	SeriesBTCUSD:    ProviderBinance,
	SeriesWALCL:     ProviderFRED,
	SeriesWTREGEN:   ProviderFRED,
	SeriesRRP:       ProviderFRED,
	SeriesDXY:       ProviderFRED,
	SeriesSahm:      ProviderFRED,
	SeriesYield:     ProviderFRED,
	SeriesNewOrders: ProviderFRED,
	SeriesMVRV:      ProviderBlockchain,
	SeriesLTHSOPR:   ProviderBGeometrics,
	SeriesLTHNUPL:   ProviderBGeometrics,
}

// AllSeries lists every input the engine consumes, anchor first.
func AllSeries() []SeriesID {
	return []SeriesID{
		SeriesBTCUSD,
		SeriesWALCL, SeriesWTREGEN, SeriesRRP,
		SeriesDXY,
		SeriesSahm, SeriesYield, SeriesNewOrders,
		SeriesMVRV, SeriesLTHSOPR, SeriesLTHNUPL,
	}
}

// ProviderOf returns the upstream of id and whether id is supported.
func ProviderOf(id SeriesID) (Provider, bool) {
	p, ok := seriesProviders[id]
	return p, ok
}

// ParseSeriesID normalizes raw ("lth_sopr", "walcl") into a supported id.
func ParseSeriesID(raw string) (SeriesID, error) {
	id := SeriesID(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := seriesProviders[id]; !ok {
		return "", ErrUnknownSeries
	}
	return id, nil
}

// RemoteName is the identifier the upstream provider uses for the series.
func (id SeriesID) RemoteName() string {
	switch id {
	case SeriesLTHSOPR, SeriesLTHNUPL, SeriesMVRV:
		return strings.ToLower(string(id))
	case SeriesBTCUSD:
		return "BTCUSDT"
	default:
		return string(id)
	}
}
