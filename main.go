// Package main provides the modelkit CLI.
package main

import (
	"github.com/dotcommander/modelkit/internal/cmd"
	"github.com/dotcommander/modelkit/internal/config"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version = ""
	//nolint: gochecknoglobals
	CommitSHA = ""
)

func main() {
	cfg, cfgErr := config.Ensure()
	cmd.Execute(cmd.BuildInfo{Version: Version, CommitSHA: CommitSHA}, cfg, cfgErr)
}
