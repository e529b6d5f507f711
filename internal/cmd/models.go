package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/registry"
	"github.com/spf13/cobra"
)

func newModelsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model keys of the active table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			entries, err := registry.Entries(&rt.cfg)
			if err != nil {
				return errs.Wrap(err, "Could not list the models.")
			}
			printEntries(os.Stdout, present.StdoutStyles(), entries, rt.cfg.Test)
			return nil
		},
	}
}

func printEntries(w io.Writer, s present.Styles, entries []registry.Entry, test bool) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Key))
	}
	for _, e := range entries {
		key := string(e.Key) + strings.Repeat(" ", width-len(e.Key))
		details := fmt.Sprintf("%-5s %-9s %s/%s", e.Kind, e.Capability, e.API, e.Model)
		if e.Fallback != "" {
			details += " -> " + string(e.Fallback)
		}
		fmt.Fprintf(w, "%s  %s\n", s.Key.Render(key), s.Comment.Render(details))
	}
	if test {
		fmt.Fprintln(w, s.Timeago.Render("(test table)"))
	}
}

// modelKeys returns the keys of kind starting with prefix, for completions.
func modelKeys(cfg *config.Config, kind registry.Kind, prefix string) []string {
	entries, err := registry.Entries(cfg)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		if e.Kind == kind && strings.HasPrefix(string(e.Key), prefix) {
			keys = append(keys, string(e.Key))
		}
	}
	return keys
}
