package signals

import (
	"testing"

	"CoinStrat/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func allScoreCombinations() []models.FactorScores {
	var out []models.FactorScores
	for val := 0; val <= 3; val++ {
		for dxy := 0; dxy <= 2; dxy++ {
			for liq := 0; liq <= 2; liq++ {
				for cyc := 0; cyc <= 2; cyc++ {
					for _, pr := range []bool{false, true} {
						out = append(out, models.FactorScores{Val: val, DXY: dxy, Liq: liq, Cycle: cyc, PriceRegimeOn: pr})
					}
				}
			}
		}
	}
	return out
}

func TestCoreEntryAndExitNeverBothHold(t *testing.T) {
	for _, s := range allScoreCombinations() {
		assert.False(t, CoreEntry(s) && CoreExit(s), "entry and exit both hold for %+v", s)
	}
}

func TestCoreTransitionHysteresis(t *testing.T) {
	for _, s := range allScoreCombinations() {
		for _, prev := range []bool{false, true} {
			next := CoreTransition(prev, s)
			switch {
			case !prev && CoreEntry(s):
				assert.True(t, next, "%+v", s)
			case prev && CoreExit(s):
				assert.False(t, next, "%+v", s)
			default:
				assert.Equal(t, prev, next, "state must persist for %+v", s)
			}
		}
	}
}

func TestCoreEntryOnDeepValueIgnoresRegime(t *testing.T) {
	s := models.FactorScores{Val: 3, DXY: 1, PriceRegimeOn: false}
	assert.True(t, CoreTransition(false, s))
}

func TestCoreEntryNeedsDollarSupport(t *testing.T) {
	assert.False(t, CoreTransition(false, models.FactorScores{Val: 3, DXY: 0, PriceRegimeOn: true}))
	assert.False(t, CoreTransition(false, models.FactorScores{Val: 0, DXY: 2, PriceRegimeOn: true}))
	assert.True(t, CoreTransition(false, models.FactorScores{Val: 1, DXY: 1, PriceRegimeOn: true}))
}

func TestCoreExitRules(t *testing.T) {
	// regime lost with valuation not at the extreme
	assert.False(t, CoreTransition(true, models.FactorScores{Val: 2, DXY: 2, PriceRegimeOn: false}))
	// deep value keeps CORE on through a broken regime
	assert.True(t, CoreTransition(true, models.FactorScores{Val: 3, DXY: 0, PriceRegimeOn: false}))
	// expensive and dollar headwind
	assert.False(t, CoreTransition(true, models.FactorScores{Val: 0, DXY: 0, PriceRegimeOn: true}))
	// expensive alone is not enough while the regime holds
	assert.True(t, CoreTransition(true, models.FactorScores{Val: 0, DXY: 1, PriceRegimeOn: true}))
}

func TestFoldCore(t *testing.T) {
	seq := []models.FactorScores{
		{Val: 1, DXY: 1, PriceRegimeOn: false}, // stays off
		{Val: 1, DXY: 1, PriceRegimeOn: true},  // enters
		{Val: 0, DXY: 1, PriceRegimeOn: true},  // holds, would not re-enter
		{Val: 1, DXY: 0, PriceRegimeOn: true},  // holds
		{Val: 2, DXY: 1, PriceRegimeOn: false}, // exits
		{Val: 2, DXY: 0, PriceRegimeOn: true},  // stays off
	}
	assert.Equal(t, []bool{false, true, true, true, false, false}, FoldCore(seq))
}

func TestMacroOn(t *testing.T) {
	assert.True(t, MacroOn(models.FactorScores{Liq: 2, Cycle: 1, DXY: 1}))
	assert.False(t, MacroOn(models.FactorScores{Liq: 2, Cycle: 1, DXY: 0}))
	assert.False(t, MacroOn(models.FactorScores{Liq: 1, Cycle: 1, DXY: 2}))
	assert.True(t, MacroOn(models.FactorScores{Liq: 2, Cycle: 2, DXY: 2, Val: 0}))
}
