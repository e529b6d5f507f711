package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dotcommander/modelkit/internal/present"
)

// readStdin returns the piped input, trimmed. It returns nothing when stdin is
// a terminal.
func readStdin() (string, error) {
	if present.IsInputTTY() {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// drainStdin discards piped input for commands that do not read it.
func drainStdin() {
	if present.IsInputTTY() {
		return
	}
	_, _ = io.Copy(io.Discard, os.Stdin)
}
