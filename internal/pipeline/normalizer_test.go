package pipeline

import "testing"

func TestNormalize_RecordsEveryZeroWidthOccurrence(t *testing.T) {
	text := "a​b​c​d"
	state := &ScanState{Original: []byte(text)}
	Normalize(state)

	count := 0
	for _, h := range state.HazardOccurrences {
		if h.Code == ReasonZeroWidth {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 recorded ZERO_WIDTH occurrences, got %d", count)
	}

	found := 0
	for _, f := range state.Findings {
		if f.Code == ReasonZeroWidth {
			found++
		}
	}
	if found != 1 {
		t.Errorf("expected ZERO_WIDTH to still dedup to a single Finding, got %d", found)
	}
}
