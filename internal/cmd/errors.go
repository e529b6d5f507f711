package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/storage"
)

func handleError(err error) {
	maybeWriteMemProfile()

	// exhaust stdin
	if !present.IsInputTTY() {
		_, _ = io.ReadAll(os.Stdin)
	}

	printError(os.Stderr, present.StderrStyles(), err)
}

func printError(w io.Writer, s present.Styles, err error) {
	format := "\n%s\n\n"

	var ferr flagParseError
	if errors.As(err, &ferr) {
		fmt.Fprintf(w, format+"%s\n\n",
			fmt.Sprintf(
				"Check out %s %s",
				s.InlineCode.Render("modelkit -h"),
				s.Comment.Render("for help."),
			),
			fmt.Sprintf(ferr.ReasonFormat(), s.InlineCode.Render(ferr.Flag())),
		)
		return
	}

	args := []any{s.ErrPadding.Render(s.ErrorDetails.Render(err.Error()))}
	var merr errs.Error
	if errors.As(err, &merr) {
		args = []any{s.ErrPadding.Render(s.ErrorHeader.String(), merr.Reason)}
		if !errors.Is(merr.Err, huh.ErrUserAborted) {
			format += "%s\n\n"
			args = append(args, s.ErrPadding.Render(s.ErrorDetails.Render(err.Error())))
		}
	}
	if hint := errorHint(s, err); hint != "" {
		format += "%s\n\n"
		args = append(args, s.ErrPadding.Render(hint))
	}
	fmt.Fprintf(w, format, args...)
}

// errorHint suggests the command that helps with err, if any.
func errorHint(s present.Styles, err error) string {
	var cmd, what string
	switch {
	case errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, errs.ErrUnknownCapability):
		cmd, what = "modelkit models", "to list the model keys."
	case errors.Is(err, errs.ErrStreamNotStarted):
		cmd, what = "modelkit config", "to check the API keys and base URLs."
	case errors.Is(err, storage.ErrNoMatches), errors.Is(err, storage.ErrManyMatches):
		cmd, what = "modelkit config dirs artifacts", "shows where images are stored."
	default:
		return ""
	}
	return fmt.Sprintf("%s %s %s", s.Comment.Render("Run"), s.InlineCode.Render(cmd), s.Comment.Render(what))
}
