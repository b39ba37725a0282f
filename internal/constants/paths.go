package constants

// DefaultEnvPath is the default path to the .env file.
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file.
const DefaultConfigPath = "./config.toml"

// DefaultWorkDir is the default working directory.
const DefaultWorkDir = "."

// DefaultDataDir is the default gateway data directory.
const DefaultDataDir = "~/.bridgewarden"

// Data-dir subdirectory names, relative to the configured data directory.
const (
	SubdirApprovals  = "approvals"
	SubdirRepos      = "repos"
	SubdirQuarantine = "quarantine"
	SubdirLogs       = "logs"
)

// AuditLogFile is the filename of the append-only audit log under logs/.
const AuditLogFile = "audit.jsonl"
