package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrintConfirmation writes an action header, such as SAVED for a stored image
// or DELETED for a removed one, followed by content.
func PrintConfirmation(w io.Writer, s Styles, action, content string) {
	header := s.ActionHeader.SetString(strings.ToUpper(action))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Center, header.String(), content))
}

// PrintWarnings writes each provider warning on its own line.
func PrintWarnings(w io.Writer, s Styles, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintln(w, s.Comment.Render("Warning: "+warning))
	}
}
