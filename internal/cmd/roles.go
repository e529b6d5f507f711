package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/spf13/cobra"
)

func newRolesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the configured roles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			listRoles(&rt.cfg)
			return nil
		},
	}
}

func roleNames(cfg *config.Config, prefix string) []string {
	roles := make([]string, 0, len(cfg.Roles))
	for role := range cfg.Roles {
		if prefix != "" && !strings.HasPrefix(role, prefix) {
			continue
		}
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}

func listRoles(cfg *config.Config) {
	for _, role := range roleNames(cfg, "") {
		s := role
		if role == cfg.Role {
			s = role + present.StdoutStyles().Timeago.Render(" (default)")
		}
		fmt.Println(s)
	}
}
