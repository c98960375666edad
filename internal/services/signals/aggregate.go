package signals

import "CoinStrat/internal/domain/models"

// CoreEntry reports whether an OFF CORE state switches ON.
func CoreEntry(s models.FactorScores) bool {
	conviction := s.Val >= 3 || (s.Val >= 1 && s.PriceRegimeOn)
	return conviction && s.DXY >= 1
}

// CoreExit reports whether an ON CORE state switches OFF.
func CoreExit(s models.FactorScores) bool {
	return (!s.PriceRegimeOn && s.Val <= 2) || (s.Val == 0 && s.DXY == 0)
}

// CoreTransition advances the CORE state machine by one day.
func CoreTransition(prev bool, s models.FactorScores) bool {
	if prev {
		return !CoreExit(s)
	}
	return CoreEntry(s)
}

// FoldCore runs CoreTransition over scores from an OFF start.
func FoldCore(scores []models.FactorScores) []bool {
	out := make([]bool, len(scores))
	state := false
	for i, s := range scores {
		state = CoreTransition(state, s)
		out[i] = state
	}
	return out
}

// MacroOn is the stateless liquidity and cycle tailwind flag.
func MacroOn(s models.FactorScores) bool {
	return s.Liq+s.Cycle >= 3 && s.DXY >= 1
}
