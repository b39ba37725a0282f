package metrics

import (
	"testing"

	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

func TestCounters_RecordScanTracksDecisionsAndMeanRiskScore(t *testing.T) {
	c := &Counters{}
	c.RecordScan(pipeline.GuardResult{Decision: pipeline.DecisionAllow, RiskScore: 0.0})
	c.RecordScan(pipeline.GuardResult{Decision: pipeline.DecisionWarn, RiskScore: 0.5})
	c.RecordScan(pipeline.GuardResult{Decision: pipeline.DecisionBlock, RiskScore: 1.0, QuarantineID: "q1", CacheHit: false})
	c.RecordScan(pipeline.GuardResult{Decision: pipeline.DecisionBlock, RiskScore: 1.0, QuarantineID: "q1", CacheHit: true})

	snap := c.Snapshot()
	if snap.Scans != 4 {
		t.Errorf("expected 4 scans, got %d", snap.Scans)
	}
	if snap.Allowed != 1 || snap.Warned != 1 || snap.Blocked != 2 {
		t.Errorf("expected 1/1/2 allowed/warned/blocked, got %d/%d/%d", snap.Allowed, snap.Warned, snap.Blocked)
	}
	if snap.QuarantinePuts != 2 || snap.QuarantineHits != 1 {
		t.Errorf("expected 2 puts and 1 hit, got %d/%d", snap.QuarantinePuts, snap.QuarantineHits)
	}
	wantMean := (0.0 + 0.5 + 1.0 + 1.0) / 4
	if snap.MeanRiskScore != wantMean {
		t.Errorf("expected mean risk score %v, got %v", wantMean, snap.MeanRiskScore)
	}
}
