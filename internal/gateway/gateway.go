// Package gateway is the composition root binding the inspection pipeline
// to its three I/O boundaries (file, web, repo) and its three persistence
// stores (quarantine, audit log, approvals), and exposes the eight
// bw_* operations an RPC transport calls into.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bridgewarden/bridgewarden/internal/approvals"
	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/config"
	"github.com/bridgewarden/bridgewarden/internal/datadir"
	"github.com/bridgewarden/bridgewarden/internal/fetch"
	"github.com/bridgewarden/bridgewarden/internal/fetchpool"
	"github.com/bridgewarden/bridgewarden/internal/logger"
	"github.com/bridgewarden/bridgewarden/internal/metrics"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
	"github.com/bridgewarden/bridgewarden/internal/policy"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

// Gateway wires the pipeline to fetchers and persistence. All its
// exported methods are safe for concurrent use.
type Gateway struct {
	cfg    *config.Config
	dir    *datadir.Dir
	logger *logger.Logger

	policy *policy.Store

	quarantine *quarantine.Store
	audit      *audit.Log
	approvals  *approvals.Store

	files *fetch.FileFetcher
	web   *fetch.WebFetcher
	repos *fetch.RepoFetcher

	pool *fetchpool.Pool

	metrics *metrics.Counters

	now func() time.Time
}

// New wires a Gateway from cfg, rooted at dir. The caller is responsible
// for calling dir.EnsureAll() first.
func New(cfg *config.Config, dir *datadir.Dir, log *logger.Logger) (*Gateway, error) {
	policyStore, err := policy.NewStore(cfg.Gateway.Profile)
	if err != nil {
		return nil, fmt.Errorf("gateway: loading policy: %w", err)
	}

	approvalsStore := approvals.NewStore(dir.Approvals())
	quarantineStore := quarantine.NewStore(dir.Quarantine())
	auditLog := audit.NewLog(dir.AuditLogPath())

	g := &Gateway{
		cfg:        cfg,
		dir:        dir,
		logger:     log,
		policy:     policyStore,
		quarantine: quarantineStore,
		audit:      auditLog,
		approvals:  approvalsStore,
		files:      fetch.NewFileFetcher(dir.Repos(), cfg.Network.RepoMaxFileBytes),
		pool:       fetchpool.New(cfg.Fetchpool.Workers, cfg.Fetchpool.QueueDepth, log),
		metrics:    &metrics.Counters{},
		now:        time.Now,
	}

	g.web = fetch.NewWebFetcher(g.webHostAllowed, cfg.Network.WebMaxBytes, time.Duration(cfg.Network.TimeoutSeconds)*time.Second, "bridgewarden/1.0")
	g.repos = fetch.NewRepoFetcher(cfg.Network.RepoMaxBytes, cfg.Network.RepoMaxFileBytes, cfg.Network.RepoMaxFiles, "bridgewarden/1.0")

	g.pool.Start()

	return g, nil
}

// Close releases the gateway's background workers.
func (g *Gateway) Close() {
	g.pool.Stop()
}

// Metrics returns the gateway's lifetime scan/decision counters, for a
// caller (cmd/bridgewarden) that wants to attach a periodic
// metrics.Reporter.
func (g *Gateway) Metrics() *metrics.Counters {
	return g.metrics
}

// ReloadPolicy recompiles the rule pack and swaps the active policy
// snapshot. In-flight scans keep running against their original snapshot.
func (g *Gateway) ReloadPolicy() error {
	return g.policy.Reload(g.cfg.Gateway.Profile)
}

// webHostAllowed combines the static config allowlist with any host that
// has an APPROVED source-approval record, so a human decision against a
// pending request widens the allowlist without a config reload.
func (g *Gateway) webHostAllowed(host string) bool {
	for _, allowed := range g.cfg.Network.AllowedWebHosts {
		if allowed == host {
			return true
		}
	}
	rec, found, err := g.approvals.FindByTarget(approvals.KindWebDomain, host)
	return err == nil && found && rec.Status == approvals.StatusApproved
}

// repoURLApproved reports whether url is allowlisted by config or has an
// APPROVED source-approval record.
func (g *Gateway) repoURLApproved(url string) bool {
	for _, allowed := range g.cfg.Approvals.AllowedRepoURLs {
		if allowed == url {
			return true
		}
	}
	rec, found, err := g.approvals.FindByTarget(approvals.KindRepoURL, url)
	return err == nil && found && rec.Status == approvals.StatusApproved
}

// recordResult persists a scan result to the audit log and, for WARN/BLOCK
// decisions, quarantine — filling in CacheHit/QuarantineID on the returned
// copy.
func (g *Gateway) recordResult(result pipeline.GuardResult, original []byte) pipeline.GuardResult {
	g.metrics.RecordScan(result)
	now := g.now()

	if result.Decision == pipeline.DecisionBlock || result.Decision == pipeline.DecisionWarn {
		rec := quarantine.RecordFrom(result, original, now)
		cacheHit, err := g.quarantine.Put(rec)
		if err != nil {
			g.logger.Error("gateway: writing quarantine record", err,
				logger.Field{Key: "content_hash", Value: result.ContentHash})
		} else {
			result.CacheHit = cacheHit
			result.QuarantineID = quarantine.IDFor(result.ContentHash)
		}
	}

	entry := audit.EntryFrom(result, now)
	if err := g.audit.Append(entry); err != nil {
		g.logger.Error("gateway: writing audit entry", err,
			logger.Field{Key: "content_hash", Value: result.ContentHash})
	}

	return result
}

// gateNewSource checks whether target (a web domain or repo URL) requires
// a human approval before it may be scanned, synthesizing a PENDING
// request the first time an unapproved target is seen. It returns
// (approvalID, blocked): blocked is true when the caller must return
// NEW_SOURCE_REQUIRES_APPROVAL instead of running the pipeline.
func (g *Gateway) gateNewSource(kind, target string, approved bool) (approvalID string, blocked bool) {
	if !g.cfg.ApprovalRequired() || approved {
		return "", false
	}

	if rec, found, err := g.approvals.FindByTarget(kind, target); err == nil && found {
		if rec.Status == approvals.StatusApproved {
			return "", false
		}
		return rec.ApprovalID, true
	}

	id := newApprovalID()
	if _, err := g.approvals.Create(id, kind, target, g.now()); err != nil {
		g.logger.Error("gateway: creating approval request", err,
			logger.Field{Key: "target", Value: target})
		return "", true
	}
	return id, true
}

func newApprovalID() string {
	return "appr_" + uuid.NewString()
}

// ctxDeadline derives a bounded context for a fetch, falling back to the
// configured network timeout when ctx carries no deadline of its own.
func (g *Gateway) ctxDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(g.cfg.Network.TimeoutSeconds)*time.Second)
}
