package cmd

import (
	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/registry"
	"github.com/spf13/cobra"
)

func initRootFlags(cmd *cobra.Command, cfg *config.Config) {
	initSharedFlags(cmd, cfg)

	flags := cmd.Flags()
	flags.BoolVarP(&cfg.AskModel, "ask-model", "M", cfg.AskModel, present.StdoutStyles().FlagDesc.Render(helpText["ask-model"]))
	flags.BoolVarP(&cfg.Raw, "raw", "r", cfg.Raw, present.StdoutStyles().FlagDesc.Render(helpText["raw"]))
	flags.BoolVar(&cfg.HideReasoning, "hide-reasoning", cfg.HideReasoning, present.StdoutStyles().FlagDesc.Render(helpText["hide-reasoning"]))
	flags.BoolVar(&cfg.Copy, "copy", cfg.Copy, present.StdoutStyles().FlagDesc.Render(helpText["copy"]))
	flags.BoolVarP(&cfg.OpenEditor, "editor", "e", false, present.StdoutStyles().FlagDesc.Render(helpText["editor"]))
	flags.StringVarP(&cfg.Role, "role", "R", cfg.Role, present.StdoutStyles().FlagDesc.Render(helpText["role"]))
	flags.StringVar(&cfg.System, "system", cfg.System, present.StdoutStyles().FlagDesc.Render(helpText["system"]))
	flags.Float64Var(&cfg.Temperature, "temp", cfg.Temperature, present.StdoutStyles().FlagDesc.Render(helpText["temp"]))
	flags.Float64Var(&cfg.TopP, "topp", cfg.TopP, present.StdoutStyles().FlagDesc.Render(helpText["topp"]))
	flags.Int64Var(&cfg.TopK, "topk", cfg.TopK, present.StdoutStyles().FlagDesc.Render(helpText["topk"]))
	flags.Int64Var(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, present.StdoutStyles().FlagDesc.Render(helpText["max-tokens"]))
	flags.Int64Var(&cfg.MaxCompletionTokens, "max-completion-tokens", cfg.MaxCompletionTokens, present.StdoutStyles().FlagDesc.Render(helpText["max-completion-tokens"]))
	flags.Int64Var(&cfg.MaxInputChars, "max-input-chars", cfg.MaxInputChars, present.StdoutStyles().FlagDesc.Render(helpText["max-input-chars"]))
	flags.BoolVar(&cfg.NoLimit, "no-limit", cfg.NoLimit, present.StdoutStyles().FlagDesc.Render(helpText["no-limit"]))
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, present.StdoutStyles().FlagDesc.Render(helpText["max-retries"]))
	flags.IntVar(&cfg.WordWrap, "word-wrap", cfg.WordWrap, present.StdoutStyles().FlagDesc.Render(helpText["word-wrap"]))
	flags.StringVar(&cfg.Theme, "theme", cfg.Theme, present.StdoutStyles().FlagDesc.Render(helpText["theme"]))
	flags.BoolVarP(&cfg.ShowHelp, "help", "h", false, present.StdoutStyles().FlagDesc.Render(helpText["help"]))
	flags.BoolVarP(&cfg.Version, "version", "v", false, present.StdoutStyles().FlagDesc.Render(helpText["version"]))
	flags.SortFlags = false

	flags.StringVar(&memprofileDir, "memprofile", "", "Write memory profiles to this directory")
	flags.Lookup("memprofile").NoOptDefVal = "."
	_ = flags.MarkHidden("memprofile")

	_ = cmd.RegisterFlagCompletionFunc("model", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return modelKeys(cfg, registry.KindChat, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("role", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return roleNames(cfg, toComplete), cobra.ShellCompDirectiveDefault
	})

	cmd.MarkFlagsMutuallyExclusive("model", "ask-model")
}

// initSharedFlags registers the flags every invoking command understands.
// They are persistent so subcommands inherit them.
func initSharedFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, present.StdoutStyles().FlagDesc.Render(helpText["model"]))
	flags.BoolVar(&cfg.Test, "test", cfg.Test, present.StdoutStyles().FlagDesc.Render(helpText["test"]))
	flags.StringVarP(&cfg.HTTPProxy, "http-proxy", "x", cfg.HTTPProxy, present.StdoutStyles().FlagDesc.Render(helpText["http-proxy"]))
	flags.Var(newDurationFlag(cfg.RequestTimeout, &cfg.RequestTimeout), "request-timeout", present.StdoutStyles().FlagDesc.Render(helpText["request-timeout"]))
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, present.StdoutStyles().FlagDesc.Render(helpText["quiet"]))
	flags.SortFlags = false
}
