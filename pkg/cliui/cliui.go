// Package cliui provides reusable terminal UI helpers (styles, markdown
// rendering) for spool CLI commands.
package cliui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	IDStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	RoleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	PreviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
