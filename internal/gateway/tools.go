package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/bridgewarden/bridgewarden/internal/approvals"
	"github.com/bridgewarden/bridgewarden/internal/fetch"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
	"github.com/bridgewarden/bridgewarden/internal/policy"
)

// ReadFile implements bw_read_file: path is resolved relative to repoID's
// checkout directory when repoID is set, or the shared repos root
// otherwise.
func (g *Gateway) ReadFile(ctx context.Context, path, repoID, mode string) (pipeline.GuardResult, error) {
	relPath := path
	if repoID != "" {
		relPath = filepath.Join(repoID, path)
	}

	data, err := g.files.Fetch(relPath)
	if err != nil {
		return pipeline.GuardResult{}, fmt.Errorf("bw_read_file: %w", err)
	}

	snapshot := g.policy.Current()
	engine := pipeline.NewEngine(snapshot.Pack)
	result := engine.Scan(data, pipeline.SourceDescriptor{Kind: "file", Path: path}, snapshot.Profile, snapshot.Version)

	return g.recordResult(result, data), nil
}

// WebFetch implements bw_web_fetch. A malformed URL is bad input and is
// returned as an error so the RPC layer reports it as such, never as a
// pipeline decision. A well-formed URL whose host is a literal or
// resolved disallowed address is rejected as SSRF_BLOCKED before the
// approval gate runs, since an SSRF target is never something a human
// approval could legitimately unblock. Only once SSRF is ruled out does
// an unapproved host produce a BLOCK with NEW_SOURCE_REQUIRES_APPROVAL.
func (g *Gateway) WebFetch(ctx context.Context, rawURL, mode string, maxBytes int64) (pipeline.GuardResult, error) {
	snapshot := g.policy.Current()

	if !g.cfg.Network.Enabled {
		return g.blockAndRecord(snapshot, pipeline.SourceDescriptor{Kind: "web", URL: rawURL}, pipeline.ReasonFetchFailed), nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return pipeline.GuardResult{}, fmt.Errorf("bw_web_fetch: invalid url %q", rawURL)
	}
	host := parsed.Hostname()

	if err := fetch.CheckSSRF(host); err != nil {
		var ssrfErr *fetch.SSRFError
		reason := pipeline.ReasonFetchFailed
		if errors.As(err, &ssrfErr) {
			reason = pipeline.ReasonSSRFBlocked
		}
		return g.blockAndRecord(snapshot, pipeline.SourceDescriptor{Kind: "web", URL: rawURL, Domain: host}, reason), nil
	}

	approved := g.webHostAllowed(host)
	if approvalID, blocked := g.gateNewSource(approvals.KindWebDomain, host, approved); blocked {
		result := g.blockResult(snapshot, pipeline.SourceDescriptor{Kind: "web", URL: rawURL, Domain: host}, pipeline.ReasonNewSourceRequiresApproval)
		result.ApprovalID = approvalID
		return g.recordResult(result, nil), nil
	}

	fetchCtx, cancel := g.ctxDeadline(ctx)
	defer cancel()

	fetchResult, err := g.pool.Submit(fetchCtx, rawURL, "web", func(fetchCtx context.Context) (any, error) {
		return g.web.Fetch(fetchCtx, rawURL, mode)
	})
	if err != nil || fetchResult.Error != nil {
		fetchErr := err
		if fetchErr == nil {
			fetchErr = fetchResult.Error
		}
		var ssrfErr *fetch.SSRFError
		if errors.As(fetchErr, &ssrfErr) {
			return g.blockAndRecord(snapshot, pipeline.SourceDescriptor{Kind: "web", URL: rawURL, Domain: host}, pipeline.ReasonSSRFBlocked), nil
		}
		return g.blockAndRecord(snapshot, pipeline.SourceDescriptor{Kind: "web", URL: rawURL, Domain: host}, pipeline.ReasonFetchFailed), nil
	}

	body := fetchResult.Output.(fetch.Result)
	source := pipeline.SourceDescriptor{Kind: "web", URL: body.FinalURL, Domain: host}

	engine := pipeline.NewEngine(snapshot.Pack)
	result := engine.Scan(body.Body, source, snapshot.Profile, snapshot.Version)
	return g.recordResult(result, body.Body), nil
}

// FetchRepo implements bw_fetch_repo.
func (g *Gateway) FetchRepo(ctx context.Context, url string, includePaths, excludePaths []string) (RepoFetchResult, error) {
	snapshot := g.policy.Current()

	if !g.cfg.Network.Enabled {
		return RepoFetchResult{}, fmt.Errorf("bw_fetch_repo: network fetching is disabled")
	}

	approved := g.repoURLApproved(url)
	if approvalID, blocked := g.gateNewSource(approvals.KindRepoURL, url, approved); blocked {
		return RepoFetchResult{RepoID: "", NewRevision: "", QuarantineIDs: nil}, fmt.Errorf("bw_fetch_repo: source requires approval (approval_id=%s)", approvalID)
	}

	fetchCtx, cancel := g.ctxDeadline(ctx)
	defer cancel()

	submitted, err := g.pool.Submit(fetchCtx, url, "repo", func(fetchCtx context.Context) (any, error) {
		return g.repos.Fetch(fetchCtx, url, includePaths, excludePaths)
	})
	if err != nil {
		return RepoFetchResult{}, fmt.Errorf("bw_fetch_repo: %w", err)
	}
	if submitted.Error != nil {
		return RepoFetchResult{}, fmt.Errorf("bw_fetch_repo: %w", submitted.Error)
	}

	manifest := submitted.Output.(fetch.Manifest)
	repoID := manifest.ArchiveHash[:16]

	result := RepoFetchResult{
		RepoID:       repoID,
		NewRevision:  manifest.ArchiveHash,
		ChangedFiles: make([]string, 0, len(manifest.Files)),
	}

	engine := pipeline.NewEngine(snapshot.Pack)
	for _, file := range manifest.Files {
		source := pipeline.SourceDescriptor{Kind: "repo", URL: url, Path: file.Path}
		scan := engine.Scan(file.Data, source, snapshot.Profile, snapshot.Version)
		scan = g.recordResult(scan, file.Data)

		result.ChangedFiles = append(result.ChangedFiles, file.Path)
		result.Findings = append(result.Findings, scan)
		result.Summary.Totals++
		switch scan.Decision {
		case pipeline.DecisionWarn:
			result.Summary.Warnings++
		case pipeline.DecisionBlock:
			result.Summary.Blocks++
		}
		if scan.CacheHit {
			result.Summary.CacheHits++
		}
		if scan.QuarantineID != "" {
			result.QuarantineIDs = append(result.QuarantineIDs, scan.QuarantineID)
		}
	}

	return result, nil
}

// QuarantineGet implements bw_quarantine_get.
func (g *Gateway) QuarantineGet(id string) (QuarantineView, error) {
	excerpt, err := g.quarantine.Get(id, 0)
	if err != nil {
		return QuarantineView{}, fmt.Errorf("bw_quarantine_get: %w", err)
	}
	return viewFrom(excerpt), nil
}

// RequestSourceApproval implements bw_request_source_approval.
func (g *Gateway) RequestSourceApproval(kind, target string) (SourceApprovalStatus, error) {
	if rec, found, err := g.approvals.FindByTarget(kind, target); err == nil && found {
		return statusFrom(rec), nil
	}
	rec, err := g.approvals.Create(newApprovalID(), kind, target, g.now())
	if err != nil {
		return SourceApprovalStatus{}, fmt.Errorf("bw_request_source_approval: %w", err)
	}
	return statusFrom(rec), nil
}

// GetSourceApproval implements bw_get_source_approval.
func (g *Gateway) GetSourceApproval(approvalID string) (SourceApprovalStatus, error) {
	rec, err := g.approvals.Get(approvalID)
	if err != nil {
		return SourceApprovalStatus{}, fmt.Errorf("bw_get_source_approval: %w", err)
	}
	return statusFrom(rec), nil
}

// ListSourceApprovals implements bw_list_source_approvals.
func (g *Gateway) ListSourceApprovals(status, kind string, limit int) ([]SourceApprovalStatus, error) {
	records, err := g.approvals.List(status, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("bw_list_source_approvals: %w", err)
	}
	out := make([]SourceApprovalStatus, 0, len(records))
	for _, rec := range records {
		out = append(out, statusFrom(rec))
	}
	return out, nil
}

// DecideSourceApproval implements bw_decide_source_approval.
func (g *Gateway) DecideSourceApproval(approvalID, decision, decidedBy, notes string) (SourceApprovalStatus, error) {
	rec, err := g.approvals.Decide(approvalID, decision, decidedBy, notes, g.now())
	if err != nil {
		return SourceApprovalStatus{}, fmt.Errorf("bw_decide_source_approval: %w", err)
	}
	return statusFrom(rec), nil
}

// blockResult builds a hard-coded BLOCK GuardResult for a gating decision
// made before the pipeline ever runs (fetch disabled, SSRF, pending
// approval) — no bytes were scanned, so RiskScore is 1 and ContentHash
// empty.
func (g *Gateway) blockResult(snapshot *policy.Snapshot, source pipeline.SourceDescriptor, reason string) pipeline.GuardResult {
	return pipeline.GuardResult{
		Decision:      pipeline.DecisionBlock,
		RiskScore:     1,
		Reasons:       []string{reason},
		Source:        source,
		PolicyVersion: snapshot.Version,
	}
}

// blockAndRecord builds a blockResult and records it in the scan metrics
// counters directly, for gating decisions that return without ever
// passing through recordResult (fetch disabled, SSRF, fetch failure).
func (g *Gateway) blockAndRecord(snapshot *policy.Snapshot, source pipeline.SourceDescriptor, reason string) pipeline.GuardResult {
	result := g.blockResult(snapshot, source, reason)
	g.metrics.RecordScan(result)
	return result
}
