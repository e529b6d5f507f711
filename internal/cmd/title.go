package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/spf13/cobra"
)

func newTitleCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "title [text]",
		Short: "Summarize text into a short title with the title model",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			input, err := readStdin()
			if err != nil {
				return errs.Wrap(err, "Could not read from STDIN.")
			}
			text := strings.TrimSpace(strings.Join(append(args, input), "\n\n"))
			if text == "" {
				return errs.Wrap(errs.UserErrorf("nothing to summarize"), "You haven't provided any text to title.")
			}

			svc, _, err := rt.service(ctx)
			if err != nil {
				return err
			}
			title, err := svc.Title(ctx, text)
			if err != nil {
				return err //nolint:wrapcheck
			}
			fmt.Println(title)
			return nil
		},
	}
}
