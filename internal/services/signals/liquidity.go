package signals

import (
	"time"

	"CoinStrat/internal/services/features"
)

const (
	// RRPONTSYD is published in billions, WALCL and WTREGEN in millions.
	rrpScale = 1000.0

	liqYoYWindow   = 365
	liqDeltaWindow = 91

	liquiditySeed = 0
)

type liquidityResult struct {
	USLiq    []float64
	YoY      []float64 // fraction
	Delta13W []float64
	Score    []int
}

// USLiquidity nets the Fed balance sheet against the TGA and reverse repo.
// Any NaN component yields NaN.
func USLiquidity(walcl, tga, rrp float64) float64 {
	return walcl - tga - rrp*rrpScale
}

// LiquidityScore grades one day on a 0..2 scale. A NaN yoy counts as non-positive.
func LiquidityScore(yoy, delta13w float64) int {
	if yoy > 0 {
		return 2
	}
	if delta13w > 0 {
		return 1
	}
	return 0
}

func scoreLiquidity(dates []time.Time, walcl, tga, rrp []float64, cf *carryTracker) liquidityResult {
	n := len(walcl)
	usLiq := make([]float64, n)
	for i := 0; i < n; i++ {
		usLiq[i] = USLiquidity(walcl[i], tga[i], rrp[i])
	}

	res := liquidityResult{
		USLiq:    usLiq,
		YoY:      features.PctChange(usLiq, liqYoYWindow),
		Delta13W: features.Diff(usLiq, liqDeltaWindow),
		Score:    make([]int, n),
	}

	prev := liquiditySeed
	for i := 0; i < n; i++ {
		if isMissing(res.YoY[i]) && isMissing(res.Delta13W[i]) {
			prev = cf.carry(dates[i], prev)
		} else {
			prev = LiquidityScore(res.YoY[i], res.Delta13W[i])
		}
		res.Score[i] = prev
	}
	return res
}
