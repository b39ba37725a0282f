package main

import (
	"os"

	"github.com/bridgewarden/bridgewarden/internal/constants"
)

var (
	Version   string = constants.DefaultVersion
	BuildTime string = constants.DefaultBuildTime
	GitCommit string = constants.DefaultGitCommit
	GoVersion string = constants.DefaultGoVersion
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
