package signals

import (
	"time"

	"CoinStrat/internal/services/features"
)

const (
	dxyFastMA    = 50
	dxySlowMA    = 200
	dxyROCWindow = 20
	dxyROCBand   = 0.005

	dxyRawSeed = 1
)

type dxyResult struct {
	MA50        []float64
	MA200       []float64
	ROC20       []float64 // fraction
	Raw         []int
	Persistence []float64
	Persistent  []bool
	Score       []int
}

// DXYRawScore grades the dollar trend before the persistence filter.
// 0 is a strengthening dollar (headwind), 2 a weakening one in a downtrend.
func DXYRawScore(roc20, ma50, ma200 float64) int {
	if roc20 > dxyROCBand {
		return 0
	}
	if roc20 < -dxyROCBand && ma50 < ma200 {
		return 2
	}
	return 1
}

func scoreDXY(dates []time.Time, dxy []float64, cf *carryTracker) dxyResult {
	n := len(dxy)
	res := dxyResult{
		MA50:       features.RollingMean(dxy, dxyFastMA),
		MA200:      features.RollingMean(dxy, dxySlowMA),
		ROC20:      features.PctChange(dxy, dxyROCWindow),
		Raw:        make([]int, n),
		Persistent: make([]bool, n),
		Score:      make([]int, n),
	}

	prev := dxyRawSeed
	for i := 0; i < n; i++ {
		if isMissing(res.ROC20[i]) {
			prev = cf.carry(dates[i], prev)
		} else {
			prev = DXYRawScore(res.ROC20[i], res.MA50[i], res.MA200[i])
		}
		res.Raw[i] = prev
	}

	nonHeadwind := make([]float64, n)
	for i, r := range res.Raw {
		if r >= 1 {
			nonHeadwind[i] = 1
		}
	}
	res.Persistence = persistence(nonHeadwind)

	for i := 0; i < n; i++ {
		res.Persistent[i] = persistent(res.Persistence[i])
		if res.Persistent[i] {
			res.Score[i] = res.Raw[i]
		}
	}
	return res
}
