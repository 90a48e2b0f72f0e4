package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Accent colours for panels.
var (
	AccentInfo    = lipgloss.Color("39")
	AccentSteps   = lipgloss.Color("69")
	AccentWarning = lipgloss.Color("205")
)

// Panel renders body in a rounded box headed by title.
func Panel(title, body string, accent lipgloss.Color) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title)
	content := strings.TrimSuffix(body, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(strings.TrimSpace(header+"\n"+content)) + "\n"
}

// KeyValues formats pairs as aligned "key: value" lines.
func KeyValues(pairs ...[2]string) string {
	width := 0
	for _, kv := range pairs {
		width = max(width, len(kv[0]))
	}
	var b strings.Builder
	for _, kv := range pairs {
		b.WriteString(kv[0])
		b.WriteString(":")
		b.WriteString(strings.Repeat(" ", width-len(kv[0])+1))
		b.WriteString(kv[1])
		b.WriteString("\n")
	}
	return b.String()
}

// Numbered formats steps as a 1-based numbered list.
func Numbered(steps ...string) string {
	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
