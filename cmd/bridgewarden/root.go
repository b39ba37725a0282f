package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bridgewarden",
	Short: "BridgeWarden - a security gateway between an AI agent and untrusted text",
	Long: `BridgeWarden sits between an AI coding agent and the text it retrieves
from files, the web, and repositories. It normalizes, sanitizes, and scores
every piece of retrieved text for prompt-injection risk before the agent
ever sees it, quarantining anything suspicious for audit.`,
	Version: Version,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}
