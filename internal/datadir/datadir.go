// Package datadir resolves and manages the on-disk layout BridgeWarden
// persists its state under: approvals, fetched repo checkouts, quarantine
// records, and the audit log.
//
//	dir, err := datadir.New("~/.bridgewarden")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := dir.EnsureAll(); err != nil {
//	    log.Fatal(err)
//	}
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bridgewarden/bridgewarden/internal/constants"
)

// Dir represents a resolved data directory with path-escape-safe subpath
// resolution.
type Dir struct {
	path     string // expanded, absolute path
	basePath string // original path from config (may contain ~)
}

// New resolves path (expanding a leading ~) into a Dir. It does not touch
// the filesystem; call EnsureAll to create the directory tree.
func New(path string) (*Dir, error) {
	if path == "" {
		path = constants.DefaultDataDir
	}
	expanded := expandHome(path)
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("datadir: resolving %q: %w", path, err)
	}
	return &Dir{path: abs, basePath: path}, nil
}

// Path returns the expanded, absolute data directory path.
func (d *Dir) Path() string {
	return d.path
}

// EnsureAll creates the data directory and all of its standard
// subdirectories (approvals, repos, quarantine, logs) if they don't exist.
func (d *Dir) EnsureAll() error {
	if err := ensureDir(d.path); err != nil {
		return fmt.Errorf("datadir: ensuring root: %w", err)
	}
	for _, sub := range []string{
		constants.SubdirApprovals,
		constants.SubdirRepos,
		constants.SubdirQuarantine,
		constants.SubdirLogs,
	} {
		if err := ensureDir(filepath.Join(d.path, sub)); err != nil {
			return fmt.Errorf("datadir: ensuring %s: %w", sub, err)
		}
	}
	return nil
}

// Approvals returns the path to the approvals subdirectory.
func (d *Dir) Approvals() string { return filepath.Join(d.path, constants.SubdirApprovals) }

// Repos returns the path to the fetched-repo-checkouts subdirectory.
func (d *Dir) Repos() string { return filepath.Join(d.path, constants.SubdirRepos) }

// Quarantine returns the path to the quarantine subdirectory.
func (d *Dir) Quarantine() string { return filepath.Join(d.path, constants.SubdirQuarantine) }

// Logs returns the path to the logs subdirectory.
func (d *Dir) Logs() string { return filepath.Join(d.path, constants.SubdirLogs) }

// AuditLogPath returns the full path to the append-only audit log file.
func (d *Dir) AuditLogPath() string { return filepath.Join(d.Logs(), constants.AuditLogFile) }

// RepoPath returns the checkout directory for one repo_id, rejecting any
// id that would escape Repos() via ".." traversal.
func (d *Dir) RepoPath(repoID string) (string, error) {
	return resolveSubpath(d.Repos(), repoID)
}

// resolveSubpath joins base with rel and verifies the result does not
// escape base, rejecting absolute paths and ".." traversal in rel.
func resolveSubpath(base, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("datadir: empty path component")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("datadir: absolute path not allowed: %s", rel)
	}

	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("datadir: path escapes base directory: %s", rel)
	}

	joined := filepath.Join(base, clean)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("datadir: resolving base: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("datadir: resolving joined path: %w", err)
	}

	relToBase, err := filepath.Rel(absBase, absJoined)
	if err != nil {
		return "", fmt.Errorf("datadir: comparing paths: %w", err)
	}
	if relToBase == ".." || strings.HasPrefix(relToBase, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("datadir: path escapes base directory: %s", rel)
	}

	return absJoined, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("accessing %s: %w", path, err)
	}
	return os.MkdirAll(path, 0o755)
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' && (len(path) == 1 || path[1] == '/') {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
