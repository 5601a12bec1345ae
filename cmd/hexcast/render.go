package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"hexcast/internal/reading"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
)

// renderReading renders a reading as terminal markdown, falling back to the
// raw markdown when the renderer cannot be built (e.g. dumb terminals).
func renderReading(res *reading.Result) string {
	md := readingMarkdown(res)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func readingMarkdown(res *reading.Result) string {
	var sb strings.Builder

	name := res.HexagramName
	if name == "" {
		name = "Reading"
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "**Coordinate:** %s / %s\n\n", res.Parent, res.Child)
	if res.Question != "" {
		fmt.Fprintf(&sb, "**Question:** %s\n\n", res.Question)
	}

	sections := []struct {
		title string
		body  string
	}{
		{"Summary", res.Summary},
		{"Interpretation", res.Interpretation},
		{"Changing Line", res.LineChange},
		{"Final Hexagram", res.FinalHexagram},
		{"Advice", res.Advice},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", s.title, s.body)
	}

	if res.ImageURL != "" {
		fmt.Fprintf(&sb, "**Image:** %s\n", res.ImageURL)
	}

	return sb.String()
}
