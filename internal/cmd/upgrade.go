package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/spf13/cobra"
)

const modulePath = "github.com/dotcommander/modelkit"

var versionRe = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// installTarget is the go install argument for version, "latest" when empty.
func installTarget(version string) (string, error) {
	switch {
	case version == "" || version == "latest":
		return modulePath + "@latest", nil
	case versionRe.MatchString(version):
		return modulePath + "@" + version, nil
	case versionRe.MatchString("v" + version):
		return modulePath + "@v" + version, nil
	}
	return "", errs.Wrap(
		errs.UserErrorf("expected a version like v1.2.3, got %q", version),
		"Invalid version.",
	)
}

func newUpgradeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade [version]",
		Short: "Install the latest, or the given, version of modelkit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var version string
			if len(args) > 0 {
				version = args[0]
			}
			target, err := installTarget(version)
			if err != nil {
				return err
			}
			if version != "" && (version == rt.build.Version || "v"+version == rt.build.Version) {
				if !rt.cfg.Quiet {
					fmt.Fprintf(os.Stderr, "Already at %s.\n", rt.build.Version)
				}
				return nil
			}
			if !rt.cfg.Quiet {
				fmt.Fprintf(os.Stderr, "Current version: %s\n", rt.build.Version)
				fmt.Fprintf(os.Stderr, "Upgrading via go install %s ...\n", target)
			}

			gobin, err := exec.LookPath("go")
			if err != nil {
				return errs.Wrap(err, "Go is needed to upgrade, but it is not in PATH.")
			}

			install := exec.Command(gobin, "install", target)
			install.Stdout = os.Stdout
			install.Stderr = os.Stderr
			if err := install.Run(); err != nil {
				return errs.Wrap(err, "go install failed.")
			}

			if !rt.cfg.Quiet {
				fmt.Fprintln(os.Stderr, "Upgrade complete.")
			}
			return nil
		},
	}
}
