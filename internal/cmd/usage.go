package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotcommander/modelkit/internal/present"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

// useLine renders the usage line of cmd with the app name highlighted.
func useLine(cmd *cobra.Command) string {
	appName := filepath.Base(os.Args[0])
	if present.StdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = present.MakeGradientText(present.StdoutStyles().AppName, appName)
	}

	return fmt.Sprintf("%s %s", appName, present.StdoutStyles().CliArgs.Render(usageArgs(cmd)))
}

// usageArgs is the usage line of cmd after the app name.
func usageArgs(cmd *cobra.Command) string {
	if !cmd.HasParent() {
		return "[OPTIONS] [PROMPT]"
	}
	args := cmd.CommandPath()[len(cmd.Root().Name())+1:] + " [OPTIONS]"
	if cmd.Use != cmd.Name() {
		args += cmd.Use[len(cmd.Name()):]
	}
	return args
}

func usageFunc(cmd *cobra.Command) error {
	styles := present.StdoutStyles()
	fmt.Printf("Usage:\n  %s\n\n", useLine(cmd))

	if cmds := visibleCommands(cmd); len(cmds) > 0 {
		fmt.Println("Commands:")
		for _, c := range cmds {
			fmt.Printf("  %-22s %s\n", styles.Key.Render(c.Name()), styles.FlagDesc.Render(c.Short))
		}
		fmt.Println()
	}

	fmt.Println("Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Printf(
				"  %-44s %s\n",
				styles.Flag.Render("--"+f.Name),
				styles.FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Printf(
				"  %s%s %-40s %s\n",
				styles.Flag.Render("-"+f.Shorthand),
				styles.FlagComma,
				styles.Flag.Render("--"+f.Name),
				styles.FlagDesc.Render(f.Usage),
			)
		}
	})
	if cmd.HasExample() {
		fmt.Printf(
			"\nExample:\n  %s\n  %s\n",
			styles.Comment.Render("# "+cmd.Example),
			cheapHighlighting(styles, examples[cmd.Example]),
		)
	}

	return nil
}

func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			cmds = append(cmds, c)
		}
	}
	return cmds
}
