package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/storage"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func plainStyles(w *bytes.Buffer) present.Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return present.MakeStyles(r)
}

func TestPrintError(t *testing.T) {
	for name, tc := range map[string]struct {
		err      error
		contains []string
		excludes []string
	}{
		"unknown key": {
			err:      errs.Wrap(fmt.Errorf("%w: %q", errs.ErrUnknownCapability, "gpt"), "Unknown model key."),
			contains: []string{"Unknown model key.", "modelkit models", "to list the model keys."},
		},
		"stream not started": {
			err:      errs.Wrap(errs.Kind(errs.ErrStreamNotStarted, errors.New("401")), "The model stream could not be started."),
			contains: []string{"could not be started", "401", "modelkit config"},
		},
		"artifact not found": {
			err:      errs.Wrap(fmt.Errorf("%w: ab12", storage.ErrNoMatches), "Could not find the image."),
			contains: []string{"Could not find the image.", "no artifacts found: ab12", "modelkit config dirs artifacts"},
		},
		"user aborted": {
			err:      errs.Error{Err: huh.ErrUserAborted, Reason: "User canceled."},
			contains: []string{"User canceled."},
			excludes: []string{"user aborted", "Run"},
		},
		"canceled": {
			err:      fmt.Errorf("wrapped: %w", context.Canceled),
			contains: []string{"wrapped: context canceled"},
			excludes: []string{"Run"},
		},
		"flag": {
			err:      newFlagParseError(errors.New("unknown flag: --nope")),
			contains: []string{"modelkit -h", "--nope"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			printError(&out, plainStyles(&out), tc.err)
			for _, s := range tc.contains {
				require.Contains(t, out.String(), s)
			}
			for _, s := range tc.excludes {
				require.NotContains(t, out.String(), s)
			}
		})
	}
}
