package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bridgewarden/bridgewarden/internal/gateway"
)

// toolDescriptor is one entry of the tools/list response.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var toolDescriptors = []toolDescriptor{
	{Name: "bw_read_file", Description: "Scan a file from the local or a fetched repo checkout before it reaches the agent."},
	{Name: "bw_web_fetch", Description: "Fetch a URL through the SSRF-guarded dialer and scan the body."},
	{Name: "bw_fetch_repo", Description: "Fetch a repository archive and scan every changed file."},
	{Name: "bw_quarantine_get", Description: "Retrieve a quarantined excerpt by its content-addressed id."},
	{Name: "bw_request_source_approval", Description: "Request human approval for a web domain or repo URL not on the allowlist."},
	{Name: "bw_get_source_approval", Description: "Look up the status of a source approval request."},
	{Name: "bw_list_source_approvals", Description: "List source approval requests, optionally filtered by status or kind."},
	{Name: "bw_decide_source_approval", Description: "Record a human decision (approve or deny) on a pending source approval request."},
}

// RegisterTools binds the bw_* methods and the MCP-style initialize and
// tools/list methods to a Server, dispatching into g.
func RegisterTools(s *Server, g *gateway.Gateway) {
	s.Handle("initialize", handleInitialize)
	s.Handle("tools/list", handleToolsList)

	s.Handle("bw_read_file", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			Path   string `json:"path"`
			RepoID string `json:"repo_id"`
			Mode   string `json:"mode"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.Path == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_read_file: path is required"}
		}
		result, err := g.ReadFile(ctx, args.Path, args.RepoID, args.Mode)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_web_fetch", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			URL      string `json:"url"`
			Mode     string `json:"mode"`
			MaxBytes int64  `json:"max_bytes"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.URL == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_web_fetch: url is required"}
		}
		result, err := g.WebFetch(ctx, args.URL, args.Mode, args.MaxBytes)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_fetch_repo", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			URL          string   `json:"url"`
			IncludePaths []string `json:"include_paths"`
			ExcludePaths []string `json:"exclude_paths"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.URL == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_fetch_repo: url is required"}
		}
		result, err := g.FetchRepo(ctx, args.URL, args.IncludePaths, args.ExcludePaths)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_quarantine_get", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.ID == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_quarantine_get: id is required"}
		}
		result, err := g.QuarantineGet(args.ID)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_request_source_approval", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			Kind   string `json:"kind"`
			Target string `json:"target"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.Kind == "" || args.Target == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_request_source_approval: kind and target are required"}
		}
		result, err := g.RequestSourceApproval(args.Kind, args.Target)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_get_source_approval", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			ApprovalID string `json:"approval_id"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.ApprovalID == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_get_source_approval: approval_id is required"}
		}
		result, err := g.GetSourceApproval(args.ApprovalID)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_list_source_approvals", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			Status string `json:"status"`
			Kind   string `json:"kind"`
			Limit  int    `json:"limit"`
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, badParams(err)
			}
		}
		result, err := g.ListSourceApprovals(args.Status, args.Kind, args.Limit)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})

	s.Handle("bw_decide_source_approval", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var args struct {
			ApprovalID string `json:"approval_id"`
			Decision   string `json:"decision"`
			DecidedBy  string `json:"decided_by"`
			Notes      string `json:"notes"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, badParams(err)
		}
		if args.ApprovalID == "" || args.Decision == "" {
			return nil, &Error{Code: invalidParamsCode, Message: "bw_decide_source_approval: approval_id and decision are required"}
		}
		result, err := g.DecideSourceApproval(args.ApprovalID, args.Decision, args.DecidedBy, args.Notes)
		if err != nil {
			return nil, badParams(err)
		}
		return result, nil
	})
}

func handleInitialize(ctx context.Context, params json.RawMessage) (any, *Error) {
	return map[string]any{
		"protocolVersion": "2.0",
		"serverInfo": map[string]string{
			"name":    "bridgewarden",
			"version": "1.0",
		},
	}, nil
}

func handleToolsList(ctx context.Context, params json.RawMessage) (any, *Error) {
	return map[string]any{"tools": toolDescriptors}, nil
}

// badParams wraps a gateway error (malformed path, unknown quarantine id,
// unapproved source, fetcher I/O failure) as a JSON-RPC bad-input error.
// Policy decisions like SSRF or a pending approval never reach here — the
// gateway returns those as an ALLOW/WARN/BLOCK result, not an error.
func badParams(err error) *Error {
	return &Error{Code: invalidParamsCode, Message: fmt.Sprintf("%v", err)}
}
