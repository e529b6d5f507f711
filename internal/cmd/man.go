package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/registry"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manKeys = []struct {
	key  registry.Key
	desc string
}{
	{registry.ChatModel, "default model for prompts"},
	{registry.ChatModelReasoning, "prompts answered with separate reasoning"},
	{registry.TitleModel, "short titles, used by the title command"},
	{registry.ArtifactModel, "structured output such as code or documents"},
	{registry.SmallModel, "image generation, used by the image command"},
}

func newManCmd(rt *runtime, root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			page, err := manPage(root, &rt.cfg)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(os.Stdout, page); err != nil {
				return fmt.Errorf("write man page: %w", err)
			}
			return nil
		},
	}
}

// manPage renders the manual of root, including the built-in model keys and
// the files modelkit reads and writes.
func manPage(root *cobra.Command, cfg *config.Config) (string, error) {
	page, err := mcobra.NewManPage(1, root)
	if err != nil {
		return "", fmt.Errorf("build man page: %w", err)
	}

	var keys strings.Builder
	for _, k := range manKeys {
		fmt.Fprintf(&keys, "%s\n    %s\n", k.key, k.desc)
	}
	page = page.
		WithSection("Model keys", keys.String()).
		WithSection("Files", strings.Join([]string{
			"settings: " + cfg.SettingsPath,
			"roles: " + config.RolesDir(cfg.SettingsPath),
			"artifacts: " + cfg.CachePath,
		}, "\n"))
	return page.Build(roff.NewDocument()), nil
}
