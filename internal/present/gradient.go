package present

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	gradientStart = "#F967DC"
	gradientEnd   = "#6B50FF"
)

// MakeGradientRamp returns length colors blended from the app's start color
// to its end color.
func MakeGradientRamp(length int) []lipgloss.Color {
	ramp := make([]lipgloss.Color, length)
	start, _ := colorful.Hex(gradientStart)
	end, _ := colorful.Hex(gradientEnd)
	for i := range length {
		ramp[i] = lipgloss.Color(start.BlendLuv(end, float64(i)/float64(length)).Hex())
	}
	return ramp
}

// MakeGradientText renders str with one ramp color per rune. Strings shorter
// than three runes are returned as is.
func MakeGradientText(baseStyle lipgloss.Style, str string) string {
	const minSize = 3
	n := utf8.RuneCountInString(str)
	if n < minSize {
		return str
	}
	var b strings.Builder
	ramp := MakeGradientRamp(n)
	i := 0
	for _, r := range str {
		b.WriteString(baseStyle.Foreground(ramp[i]).Render(string(r)))
		i++
	}
	return b.String()
}
