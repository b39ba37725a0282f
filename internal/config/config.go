package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses the gateway's TOML configuration file, applies
// documented defaults, and expands ${VAR:default}-style environment
// references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := expandEnvVars(&cfg); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	return &cfg, nil
}

// ApprovalRequired reports whether a source without a prior APPROVED
// decision must be denied pending human review, defaulting to true when
// unset in the TOML source.
func (c *Config) ApprovalRequired() bool {
	if c.Approvals.RequireApproval == nil {
		return true
	}
	return *c.Approvals.RequireApproval
}

// Validate checks the configuration for internal consistency, returning
// every problem found rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	if c.Gateway.DataDir == "" {
		errs = append(errs, fmt.Errorf("gateway.data_dir is required"))
	} else if err := validatePath(c.Gateway.DataDir, "gateway.data_dir"); err != nil {
		errs = append(errs, err)
	}

	validProfiles := map[string]bool{"strict": true, "balanced": true, "permissive": true}
	if !validProfiles[strings.ToLower(c.Gateway.Profile)] {
		errs = append(errs, fmt.Errorf("invalid gateway.profile: %s (expected: strict, balanced, permissive)", c.Gateway.Profile))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	if c.Logging.Output == "" {
		errs = append(errs, fmt.Errorf("logging.output is required"))
	}

	if c.Network.Enabled {
		if c.Network.TimeoutSeconds < 1 {
			errs = append(errs, fmt.Errorf("network.timeout_seconds must be >= 1 when network is enabled"))
		}
		if c.Network.WebMaxBytes < 1 {
			errs = append(errs, fmt.Errorf("network.web_max_bytes must be >= 1 when network is enabled"))
		}
		if c.Network.RepoMaxBytes < c.Network.RepoMaxFileBytes {
			errs = append(errs, fmt.Errorf("network.repo_max_bytes must be >= network.repo_max_file_bytes"))
		}
	}

	if c.Retention.Enabled && c.Retention.WindowHours < 1 {
		errs = append(errs, fmt.Errorf("retention.window_hours must be >= 1 when retention is enabled"))
	}

	if c.Fetchpool.Workers < 1 {
		errs = append(errs, fmt.Errorf("fetchpool.workers must be >= 1"))
	}
	if c.Fetchpool.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("fetchpool.queue_depth must be >= 0"))
	}

	if c.Metrics.Enabled && c.Metrics.CronSchedule == "" {
		errs = append(errs, fmt.Errorf("metrics.cron_schedule is required when metrics is enabled"))
	}

	return errs
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if strings.HasPrefix(path, "~") {
		return nil
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains a path traversal sequence", fieldName)
	}
	return nil
}

// expandEnvVars expands ${VAR:default}-style references and "~" home
// directories across every string-valued configuration field that may
// plausibly carry either.
func expandEnvVars(c *Config) error {
	c.Gateway.DataDir = expandHome(expandEnv(c.Gateway.DataDir))

	for i, host := range c.Network.AllowedWebHosts {
		c.Network.AllowedWebHosts[i] = expandEnv(host)
	}
	for i, host := range c.Network.AllowedRepoHosts {
		c.Network.AllowedRepoHosts[i] = expandEnv(host)
	}
	for i, domain := range c.Approvals.AllowedWebDomains {
		c.Approvals.AllowedWebDomains[i] = expandEnv(domain)
	}
	for i, url := range c.Approvals.AllowedRepoURLs {
		c.Approvals.AllowedRepoURLs[i] = expandEnv(url)
	}

	return nil
}

// expandEnv expands a "${VAR}" or "${VAR:default}" reference; any other
// string is returned unchanged.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key, defaultVal := parts[0], parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(s[2:end])
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
