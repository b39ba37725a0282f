package fetch

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/bridgewarden/bridgewarden/internal/retry"
)

// RepoFetcher streams a gzip-compressed tarball archive of a repository
// over HTTPS and yields its files one at a time under strict size and
// file-count caps. It never writes the archive to disk as a whole; files
// are read from the tar stream directly.
type RepoFetcher struct {
	maxTotalBytes int64
	maxFileBytes  int64
	maxFiles      int
	userAgent     string
	httpClient    *http.Client
}

// NewRepoFetcher returns a RepoFetcher enforcing the given caps.
func NewRepoFetcher(maxTotalBytes, maxFileBytes int64, maxFiles int, userAgent string) *RepoFetcher {
	return &RepoFetcher{
		maxTotalBytes: maxTotalBytes,
		maxFileBytes:  maxFileBytes,
		maxFiles:      maxFiles,
		userAgent:     userAgent,
		httpClient:    http.DefaultClient,
	}
}

// File is one entry read from a repository archive.
type File struct {
	Path string
	Data []byte
}

// Manifest summarizes one archive fetch: the files read and the overall
// content hash of the archive bytes, used as the repo fetcher's dedupe
// key per the "archive hash, not url@ref" decision recorded in DESIGN.md.
type Manifest struct {
	ArchiveHash string
	Files       []File
	Truncated   bool
}

// Fetch downloads archiveURL (must be https) and walks its tar+gzip
// entries, applying includePaths/excludePaths glob-style prefix filters
// (empty includePaths means "all"). Entries beyond maxFiles or whose
// cumulative size would exceed maxTotalBytes are dropped and Manifest
// Truncated is set; oversized individual files are skipped.
func (f *RepoFetcher) Fetch(ctx context.Context, archiveURL string, includePaths, excludePaths []string) (Manifest, error) {
	parsed, err := url.Parse(archiveURL)
	if err != nil {
		return Manifest{}, fmt.Errorf("fetch: parsing archive url: %w", err)
	}
	if parsed.Scheme != "https" {
		return Manifest{}, fmt.Errorf("fetch: repo archives must be fetched over https, got %q", parsed.Scheme)
	}

	openArchive := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch: building request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch: archive request returned status %d", resp.StatusCode)
		}
		return resp, nil
	}

	resp, err := retry.DoWithRetry(ctx, openArchive, retry.Config{MaxAttempts: 3})
	if err != nil {
		return Manifest{}, err
	}
	defer resp.Body.Close()

	hasher := sha256.New()
	tee := io.TeeReader(resp.Body, hasher)

	gz, err := gzip.NewReader(tee)
	if err != nil {
		return Manifest{}, fmt.Errorf("fetch: opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var manifest Manifest
	var totalBytes int64

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("fetch: reading tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if !pathIncluded(header.Name, includePaths, excludePaths) {
			continue
		}

		if len(manifest.Files) >= f.maxFiles {
			manifest.Truncated = true
			break
		}
		if header.Size > f.maxFileBytes {
			manifest.Truncated = true
			continue
		}
		if totalBytes+header.Size > f.maxTotalBytes {
			manifest.Truncated = true
			break
		}

		data, err := io.ReadAll(io.LimitReader(tr, header.Size))
		if err != nil {
			return Manifest{}, fmt.Errorf("fetch: reading %s: %w", header.Name, err)
		}

		manifest.Files = append(manifest.Files, File{Path: header.Name, Data: data})
		totalBytes += int64(len(data))
	}

	// Drain any remaining archive bytes so the hash reflects the whole
	// response body, not just the portion consumed before a cap hit.
	_, _ = io.Copy(io.Discard, tee)

	manifest.ArchiveHash = hex.EncodeToString(hasher.Sum(nil))
	return manifest, nil
}

// pathIncluded applies simple prefix-based include/exclude filtering:
// a path matches includePaths (if non-empty) when it has one of them as
// a prefix, and is then rejected if it also has any excludePaths prefix.
func pathIncluded(path string, includePaths, excludePaths []string) bool {
	if len(includePaths) > 0 {
		matched := false
		for _, prefix := range includePaths {
			if strings.HasPrefix(path, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, prefix := range excludePaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
