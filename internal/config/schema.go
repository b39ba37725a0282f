// Package config provides configuration loading and validation for the
// gateway. It supports TOML configuration files with environment variable
// expansion, default values, and comprehensive validation.
//
// Configuration structure:
//   - [gateway]: data directory and policy profile
//   - [logging]: logging level, format, and output
//   - [approvals]: human-in-the-loop source approval policy
//   - [network]: fetcher SSRF/allowlist/size limits
//   - [retention]: quarantine/audit-log retention sweep
//   - [fetchpool]: bounded fetch concurrency
//   - [metrics]: periodic scan/decision counter logging
//
// Environment variables:
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax. For example: allowed_web_hosts = ["${BW_ALLOWED_HOST:example.com}"]
package config

// Config represents the gateway's full configuration.
type Config struct {
	Gateway   GatewayConfig   `toml:"gateway"`
	Logging   LoggingConfig   `toml:"logging"`
	Approvals ApprovalsConfig `toml:"approvals"`
	Network   NetworkConfig   `toml:"network"`
	Retention RetentionConfig `toml:"retention"`
	Fetchpool FetchpoolConfig `toml:"fetchpool"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// GatewayConfig holds the top-level gateway settings.
type GatewayConfig struct {
	DataDir string `toml:"data_dir"`
	Profile string `toml:"profile"` // strict, balanced, permissive
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// ApprovalsConfig governs the human-in-the-loop source approval policy.
type ApprovalsConfig struct {
	// RequireApproval is a *bool so an absent TOML key can default to
	// true (approval required) without colliding with an explicit
	// "require_approval = false". Use Config.ApprovalRequired() rather
	// than reading this field directly.
	RequireApproval   *bool    `toml:"require_approval"`
	AllowedWebDomains []string `toml:"allowed_web_domains"`
	AllowedRepoURLs   []string `toml:"allowed_repo_urls"`
}

// NetworkConfig governs the web and repo fetchers.
type NetworkConfig struct {
	Enabled           bool     `toml:"enabled"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	WebMaxBytes       int64    `toml:"web_max_bytes"`
	RepoMaxBytes      int64    `toml:"repo_max_bytes"`
	RepoMaxFileBytes  int64    `toml:"repo_max_file_bytes"`
	RepoMaxFiles      int      `toml:"repo_max_files"`
	AllowedWebHosts   []string `toml:"allowed_web_hosts"`
	AllowedRepoHosts  []string `toml:"allowed_repo_hosts"`
}

// RetentionConfig governs the scheduled sweep that expires quarantine
// records and rotates the audit log (internal/retention).
type RetentionConfig struct {
	Enabled      bool   `toml:"enabled"`
	WindowHours  int    `toml:"window_hours"`
	CronSchedule string `toml:"cron_schedule"`
}

// FetchpoolConfig bounds concurrent fetch operations.
type FetchpoolConfig struct {
	Workers    int `toml:"workers"`
	QueueDepth int `toml:"queue_depth"`
}

// MetricsConfig governs periodic logging of scan/decision counters
// (internal/metrics). Disabled by default since it adds a background
// scheduler the gateway doesn't otherwise need.
type MetricsConfig struct {
	Enabled      bool   `toml:"enabled"`
	CronSchedule string `toml:"cron_schedule"`
}
