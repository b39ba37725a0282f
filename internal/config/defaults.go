package config

// applyDefaults fills in the gateway's documented defaults: network
// fetching disabled, source approval required, balanced risk profile.
func applyDefaults(c *Config) {
	if c.Gateway.DataDir == "" {
		c.Gateway.DataDir = "~/.bridgewarden"
	}
	if c.Gateway.Profile == "" {
		c.Gateway.Profile = "balanced"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Approvals.RequireApproval == nil {
		required := true
		c.Approvals.RequireApproval = &required
	}

	// Network.Enabled's Go zero value (false) already matches the
	// documented default, so it needs no explicit default here.
	if c.Network.TimeoutSeconds == 0 {
		c.Network.TimeoutSeconds = 15
	}
	if c.Network.WebMaxBytes == 0 {
		c.Network.WebMaxBytes = 2 << 20 // 2 MiB
	}
	if c.Network.RepoMaxBytes == 0 {
		c.Network.RepoMaxBytes = 64 << 20 // 64 MiB
	}
	if c.Network.RepoMaxFileBytes == 0 {
		c.Network.RepoMaxFileBytes = 4 << 20 // 4 MiB
	}
	if c.Network.RepoMaxFiles == 0 {
		c.Network.RepoMaxFiles = 2000
	}

	if c.Retention.WindowHours == 0 {
		c.Retention.WindowHours = 24 * 30 // 30 days
	}
	if c.Retention.CronSchedule == "" {
		c.Retention.CronSchedule = "0 0 3 * * *" // daily at 03:00
	}

	if c.Fetchpool.Workers == 0 {
		c.Fetchpool.Workers = 4
	}
	if c.Fetchpool.QueueDepth == 0 {
		c.Fetchpool.QueueDepth = 64
	}

	if c.Metrics.CronSchedule == "" {
		c.Metrics.CronSchedule = "0 */5 * * * *" // every 5 minutes
	}
}
