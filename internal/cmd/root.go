package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	glamour "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/editor"
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/dotcommander/modelkit/internal/agent"
	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/registry"
	"github.com/dotcommander/modelkit/internal/storage/cache"
	"github.com/spf13/cobra"
)

type runtime struct {
	build  BuildInfo
	cfg    config.Config
	cfgErr error
}

// Execute wires commands and runs Cobra.
func Execute(build BuildInfo, cfg config.Config, cfgErr error) {
	defer maybeWriteMemProfile()

	root := NewRootCmd(build, cfg, cfgErr)
	if err := root.Execute(); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

// NewRootCmd constructs the Cobra root command.
func NewRootCmd(build BuildInfo, cfg config.Config, cfgErr error) *cobra.Command {
	// XXX: unset error styles in Glamour dark and light styles.
	glamour.DarkStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
	glamour.LightStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)

	rt := &runtime{build: normalizeBuildInfo(build), cfg: cfg, cfgErr: cfgErr}

	rootCmd := &cobra.Command{
		Use:           "modelkit",
		Short:         "Logical model keys on the command line, reasoning split from the answer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       randomExample(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.runGenerate(ctx, cmd, args)
		},
	}

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Version = rt.build.Version
	rootCmd.SetVersionTemplate(versionTemplate(rt.build))

	initRootFlags(rootCmd, &rt.cfg)

	// Commands.
	rootCmd.AddCommand(newModelsCmd(rt))
	rootCmd.AddCommand(newTitleCmd(rt))
	rootCmd.AddCommand(newImageCmd(rt))
	rootCmd.AddCommand(newRolesCmd(rt))
	rootCmd.AddCommand(newConfigCmd(rt))
	rootCmd.AddCommand(newManCmd(rt, rootCmd))
	rootCmd.AddCommand(newUpgradeCmd(rt))

	// Enable completion now that we have subcommands.
	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

func (rt *runtime) runGenerate(ctx context.Context, cmd *cobra.Command, args []string) error {
	rt.cfg.Prefix = removeWhitespace(strings.Join(args, " "))
	if os.Getenv("VIMRUNTIME") != "" {
		rt.cfg.Quiet = true
	}

	if rt.cfg.ShowHelp {
		drainStdin()
		if err := cmd.Usage(); err != nil {
			return fmt.Errorf("usage: %w", err)
		}
		return nil
	}

	if isNoArgs(&rt.cfg) && present.IsInputTTY() && rt.cfg.OpenEditor {
		prompt, err := prefixFromEditor(filepath.Base(os.Args[0]))
		if err != nil {
			return err
		}
		rt.cfg.Prefix = removeWhitespace(prompt)
	}

	input, err := readStdin()
	if err != nil {
		return errs.Wrap(err, "Could not read from STDIN.")
	}
	if input == "" && isNoArgs(&rt.cfg) {
		return errs.Error{
			Reason: "You haven't provided any prompt input.",
			Err: errs.UserErrorf(
				"You can give your prompt as arguments and/or pipe it from STDIN.\nExample: %s",
				present.StdoutStyles().InlineCode.Render("modelkit [prompt]"),
			),
		}
	}

	svc, reg, err := rt.service(ctx)
	if err != nil {
		return err
	}

	key := registry.Key(ordered.First(rt.cfg.Model, rt.cfg.DefaultModel, string(registry.ChatModel)))
	if rt.cfg.AskModel && present.IsInputTTY() {
		picked, err := askModel(reg, key, rt.cfg.Theme)
		if err != nil {
			return err
		}
		key = picked
	}

	printer := present.TerminalSpanPrinter(rt.cfg.Raw, rt.cfg.HideReasoning, rt.cfg.WordWrap)

	res, runErr := svc.Run(ctx, key, input, printer.Handle)
	if err := printer.Finish(); err != nil && runErr == nil {
		runErr = errs.Wrap(err, "Could not write the response.")
	}
	if !rt.cfg.Quiet {
		present.PrintWarnings(os.Stderr, present.StderrStyles(), res.Warnings)
	}
	if runErr != nil {
		return runErr //nolint:wrapcheck
	}

	if rt.cfg.Copy {
		if err := clipboard.WriteAll(printer.Content()); err != nil {
			return errs.Wrap(err, "Could not copy the response to the clipboard.")
		}
		if !rt.cfg.Quiet {
			fmt.Fprintln(os.Stderr, "Copied to clipboard.")
		}
	}
	return nil
}

// service builds the registry and the invocation service around rt.cfg.
func (rt *runtime) service(ctx context.Context) (*agent.Service, *registry.Registry, error) {
	reg, err := registry.New(ctx, &rt.cfg)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	var artifacts *cache.Artifacts
	if rt.cfg.CachePath != "" {
		artifacts, err = cache.New(rt.cfg.CachePath)
		if err != nil {
			return nil, nil, errs.Wrap(err, "Could not open the artifact cache.")
		}
	}
	return agent.New(&rt.cfg, reg, artifacts), reg, nil
}

func prefixFromEditor(appName string) (string, error) {
	f, err := os.CreateTemp("", "prompt")
	if err != nil {
		return "", fmt.Errorf("could not create temporary file: %w", err)
	}
	_ = f.Close()
	defer func() { _ = os.Remove(f.Name()) }()

	c, err := editor.Cmd(
		appName,
		f.Name(),
	)
	if err != nil {
		return "", fmt.Errorf("could not open editor: %w", err)
	}
	c.Stdin = os.Stdin
	c.Stderr = os.Stderr
	c.Stdout = os.Stdout
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("could not open editor: %w", err)
	}
	prompt, err := os.ReadFile(f.Name())
	if err != nil {
		return "", fmt.Errorf("could not read file: %w", err)
	}
	return string(prompt), nil
}

func removeWhitespace(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// askModel lets the user pick one of the chat keys of reg.
func askModel(reg *registry.Registry, current registry.Key, theme string) (registry.Key, error) {
	var opts []huh.Option[registry.Key]
	for _, b := range reg.Bindings() {
		if b.Kind != registry.KindChat {
			continue
		}
		label := fmt.Sprintf("%s (%s/%s, %s)", b.Key, b.API, b.Model, b.Capability)
		opts = append(opts, huh.NewOption(label, b.Key))
	}

	key := current
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[registry.Key]().
				Title("Choose the model:").
				Options(opts...).
				Value(&key),
		),
	).
		WithTheme(themeFrom(theme)).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errs.Error{Err: err, Reason: "User canceled."}
	}
	if err != nil {
		return "", errs.Error{Err: err, Reason: "Prompt failed."}
	}
	return key, nil
}

func themeFrom(theme string) *huh.Theme {
	switch theme {
	case "dracula":
		return huh.ThemeDracula()
	case "catppuccin":
		return huh.ThemeCatppuccin()
	case "base16":
		return huh.ThemeBase16()
	default:
		return huh.ThemeCharm()
	}
}
