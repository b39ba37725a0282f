package pipeline

// Score computes state.RiskScore as the complement of the product of
// "not triggered" probabilities across distinct finding weights:
// risk = 1 - ∏(1 - wᵢ). Independent of text length; driven only by which
// reason codes fired.
func Score(state *ScanState) {
	product := 1.0
	for _, f := range state.Findings {
		w := f.Weight
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		product *= 1 - w
	}

	score := 1 - product
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	state.RiskScore = roundTo4(score)
}

func roundTo4(v float64) float64 {
	const scale = 10000
	scaled := v * scale
	rounded := int64(scaled + 0.5)
	return float64(rounded) / scale
}
