package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	timeago "github.com/caarlos0/timea.go"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/storage"
	"github.com/spf13/cobra"
)

func newImageCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image [prompt]",
		Short: "Generate an image with the image model",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if rt.cfg.ShowImage != "" || rt.cfg.DeleteImage != "" {
				return rt.storedImage(ctx)
			}

			input, err := readStdin()
			if err != nil {
				return errs.Wrap(err, "Could not read from STDIN.")
			}
			prompt := strings.TrimSpace(strings.Join(append(args, input), "\n\n"))
			if prompt == "" {
				return errs.Wrap(errs.UserErrorf("missing prompt"), "You haven't provided any image prompt.")
			}

			svc, _, err := rt.service(ctx)
			if err != nil {
				return err
			}
			artifact, path, err := svc.Image(ctx, prompt, proto.ImageOptions{Size: rt.cfg.ImageSize})
			if err != nil {
				return err //nolint:wrapcheck
			}
			return writeArtifact(rt.cfg.Output, rt.cfg.Quiet, artifact, path)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&rt.cfg.Output, "output", "o", "", present.StdoutStyles().FlagDesc.Render(helpText["output"]))
	flags.StringVar(&rt.cfg.ImageSize, "size", "", present.StdoutStyles().FlagDesc.Render(helpText["size"]))
	flags.StringVarP(&rt.cfg.ShowImage, "show", "s", "", present.StdoutStyles().FlagDesc.Render(helpText["show"]))
	flags.StringVarP(&rt.cfg.DeleteImage, "delete", "d", "", present.StdoutStyles().FlagDesc.Render(helpText["delete"]))
	cmd.MarkFlagsMutuallyExclusive("show", "delete")
	return cmd
}

// storedImage shows or deletes an image kept in the artifact cache.
func (rt *runtime) storedImage(ctx context.Context) error {
	svc, _, err := rt.service(ctx)
	if err != nil {
		return err
	}
	if rt.cfg.DeleteImage != "" {
		id, err := svc.DeleteArtifact(rt.cfg.DeleteImage)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if !rt.cfg.Quiet {
			present.PrintConfirmation(os.Stderr, present.StderrStyles(), "DELETED", storage.ShortID(id))
		}
		return nil
	}
	a, path, err := svc.Artifact(rt.cfg.ShowImage)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if !rt.cfg.Quiet {
		styles := present.StderrStyles()
		fmt.Fprintln(os.Stderr, styles.Quote.Render(a.Prompt), styles.Timeago.Render(timeago.Of(a.CreatedAt)))
	}
	return writeArtifact(rt.cfg.Output, rt.cfg.Quiet, a, path)
}

func writeArtifact(output string, quiet bool, a proto.Artifact, cached string) error {
	if output != "" {
		if len(a.Data) == 0 {
			return errs.Wrapf(errs.UserErrorf("image is only available at %s", a.URL), "Could not write %s.", output)
		}
		if err := os.WriteFile(output, a.Data, 0o600); err != nil {
			return errs.Wrapf(err, "Could not write %s.", output)
		}
		cached = output
	}

	if quiet {
		return nil
	}
	switch {
	case cached != "":
		present.PrintConfirmation(os.Stderr, present.StderrStyles(), "SAVED", cached)
	case a.URL != "":
		present.PrintConfirmation(os.Stderr, present.StderrStyles(), "URL", a.URL)
	}
	if a.RevisedPrompt != "" {
		fmt.Fprintln(os.Stderr, present.StderrStyles().Comment.Render(a.RevisedPrompt))
	}
	fmt.Fprintln(os.Stderr, present.StderrStyles().Timeago.Render("id "+storage.ShortID(a.ID)))
	return nil
}
