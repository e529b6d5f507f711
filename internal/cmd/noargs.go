package cmd

import "github.com/dotcommander/modelkit/internal/config"

func isNoArgs(cfg *config.Config) bool {
	return cfg.Prefix == "" && !cfg.ShowHelp
}
