// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles are the lipgloss styles used for help, faults, and --cli
// output on one writer. Without color every style renders plain text.
type Styles struct {
	Color bool

	renderer *lipgloss.Renderer

	Heading     lipgloss.Style
	Command     lipgloss.Style
	Flag        lipgloss.Style
	Placeholder lipgloss.Style
	Faint       lipgloss.Style
	Highlight   lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Code        lipgloss.Style
}

// NewStyles returns styles for w. The color profile is forced rather
// than detected so that color=always works on pipes and color=never
// works on terminals.
func NewStyles(w io.Writer, color bool) *Styles {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	style := renderer.NewStyle
	return &Styles{
		Color:       color,
		renderer:    renderer,
		Heading:     style().Bold(true).Foreground(lipgloss.Color("75")),
		Command:     style().Bold(true).Foreground(lipgloss.Color("114")),
		Flag:        style().Foreground(lipgloss.Color("180")),
		Placeholder: style().Italic(true).Foreground(lipgloss.Color("245")),
		Faint:       style().Foreground(lipgloss.Color("245")),
		Highlight:   style().Bold(true).Foreground(lipgloss.Color("51")),
		Error:       style().Foreground(lipgloss.Color("196")),
		Warning:     style().Foreground(lipgloss.Color("196")),
		Code:        style().Foreground(lipgloss.Color("222")),
	}
}

func (s *Styles) newStyle() lipgloss.Style {
	return s.renderer.NewStyle()
}
