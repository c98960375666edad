package signals

import "CoinStrat/internal/services/features"

const (
	persistenceWindow = 30
	persistenceMinOn  = 20
)

// persistence returns the trailing fraction of days where on[i] == 1.
func persistence(on []float64) []float64 {
	return features.RollingMean(on, persistenceWindow)
}

// persistent reports whether a fraction from persistence meets the 20-of-30 bar.
// NaN (not enough history) never does.
func persistent(fraction float64) bool {
	return fraction >= float64(persistenceMinOn)/float64(persistenceWindow)
}
