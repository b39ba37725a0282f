// Package metrics tracks in-process scan/decision counters and logs them
// on a schedule. The teacher's prometheus/client_golang dependency had no
// gateway analogue to exercise it (see DESIGN.md "Dropped dependencies"),
// so these counters are a plain struct guarded by a mutex, in the shape of
// internal/fetchpool's Metrics, reported periodically via the same
// cron.New(cron.WithSeconds()) + AddFunc scheduling internal/retention
// uses for its sweep, instead of served over HTTP.
package metrics

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/bridgewarden/bridgewarden/internal/logger"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

// Counters tracks lifetime scan totals, decisions by outcome, cumulative
// risk score (for a running mean), and quarantine dedup rate.
type Counters struct {
	mu sync.Mutex

	scans          uint64
	allowed        uint64
	warned         uint64
	blocked        uint64
	riskScoreSum   float64
	quarantinePuts uint64
	quarantineHits uint64
}

// Snapshot is an immutable copy of Counters taken for logging or tests.
type Snapshot struct {
	Scans          uint64
	Allowed        uint64
	Warned         uint64
	Blocked        uint64
	MeanRiskScore  float64
	QuarantinePuts uint64
	QuarantineHits uint64
}

// RecordScan updates the counters from one completed GuardResult.
func (c *Counters) RecordScan(result pipeline.GuardResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scans++
	c.riskScoreSum += result.RiskScore
	switch result.Decision {
	case pipeline.DecisionAllow:
		c.allowed++
	case pipeline.DecisionWarn:
		c.warned++
	case pipeline.DecisionBlock:
		c.blocked++
	}
	if result.QuarantineID != "" {
		c.quarantinePuts++
		if result.CacheHit {
			c.quarantineHits++
		}
	}
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	mean := 0.0
	if c.scans > 0 {
		mean = c.riskScoreSum / float64(c.scans)
	}
	return Snapshot{
		Scans:          c.scans,
		Allowed:        c.allowed,
		Warned:         c.warned,
		Blocked:        c.blocked,
		MeanRiskScore:  mean,
		QuarantinePuts: c.quarantinePuts,
		QuarantineHits: c.quarantineHits,
	}
}

// Reporter logs a Counters snapshot on a cron schedule.
type Reporter struct {
	cron     *cron.Cron
	counters *Counters
	logger   *logger.Logger

	mu      sync.Mutex
	started bool
}

// NewReporter returns a Reporter that logs snapshots of counters.
func NewReporter(counters *Counters, log *logger.Logger) *Reporter {
	return &Reporter{cron: cron.New(cron.WithSeconds()), counters: counters, logger: log}
}

// Start schedules periodic snapshot logging on the given cron schedule and
// starts the underlying cron's own goroutine.
func (r *Reporter) Start(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("metrics: reporter already started")
	}

	_, err := r.cron.AddFunc(schedule, r.logSnapshot)
	if err != nil {
		return fmt.Errorf("metrics: invalid schedule %q: %w", schedule, err)
	}

	r.cron.Start()
	r.started = true
	return nil
}

func (r *Reporter) logSnapshot() {
	s := r.counters.Snapshot()
	r.logger.Info("scan metrics",
		logger.Field{Key: "scans", Value: s.Scans},
		logger.Field{Key: "allowed", Value: s.Allowed},
		logger.Field{Key: "warned", Value: s.Warned},
		logger.Field{Key: "blocked", Value: s.Blocked},
		logger.Field{Key: "mean_risk_score", Value: s.MeanRiskScore},
		logger.Field{Key: "quarantine_puts", Value: s.QuarantinePuts},
		logger.Field{Key: "quarantine_hits", Value: s.QuarantineHits})
}

// Stop halts the scheduler, logging one final snapshot first.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.logSnapshot()
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.started = false
}
