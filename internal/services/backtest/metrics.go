package backtest

// MaxDrawdown is the largest peak-to-trough fractional decline of values, in [0, 1].
// Values seen while the running peak is still zero are ignored.
func MaxDrawdown(values []float64) float64 {
	peak, maxDD := 0.0, 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// TotalReturn is the gain of final over deposited as a fraction of deposited, 0 with nothing deposited.
func TotalReturn(final, deposited float64) float64 {
	if deposited <= 0 {
		return 0
	}
	return (final - deposited) / deposited
}
