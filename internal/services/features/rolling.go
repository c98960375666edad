package features

import "math"

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// RollingMean computes the trailing simple moving average of x over w samples.
// Indices before w-1 are NaN, and a NaN anywhere in the window makes that mean NaN.
func RollingMean(x []float64, w int) []float64 {
	out := NaNs(len(x))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(x); i++ {
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(w)
	}
	return out
}

// PctChange computes x[i]/x[i-p] - 1.
// It is NaN while i < p and whenever the base value is zero or NaN.
func PctChange(x []float64, p int) []float64 {
	out := NaNs(len(x))
	if p <= 0 {
		return out
	}
	for i := p; i < len(x); i++ {
		base := x[i-p]
		if base == 0 || math.IsNaN(base) {
			continue
		}
		out[i] = x[i]/base - 1
	}
	return out
}

// Diff computes x[i] - x[i-p], NaN while i < p or when the base value is NaN.
func Diff(x []float64, p int) []float64 {
	out := NaNs(len(x))
	if p <= 0 {
		return out
	}
	for i := p; i < len(x); i++ {
		if math.IsNaN(x[i-p]) {
			continue
		}
		out[i] = x[i] - x[i-p]
	}
	return out
}
