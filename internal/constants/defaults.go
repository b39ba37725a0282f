package constants

// DefaultVersion is the default version of the application.
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time.
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time.
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time.
const DefaultGoVersion = "unknown"

// DefaultProfile is the policy profile used when config omits one.
const DefaultProfile = "balanced"

// DefaultQuarantineExcerptBytes is the size of the original-bytes excerpt
// returned by bw_quarantine_get.
const DefaultQuarantineExcerptBytes = 4096

// DefaultRetentionDays is how long quarantine records and audit log entries
// are kept before the retention sweep removes them.
const DefaultRetentionDays = 30

// DefaultMaxConcurrentFetches bounds the fetch worker pool.
const DefaultMaxConcurrentFetches = 4

// DefaultFetchQueueSize is the buffered queue depth in front of the fetch pool.
const DefaultFetchQueueSize = 64

// DefaultMaxRedirects is the redirect budget for the web fetcher.
const DefaultMaxRedirects = 3
